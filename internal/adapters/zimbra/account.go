package zimbra

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/mikey/zimbra-queue-guard/internal/utils"
)

const accountInfoTemplate = `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns="urn:zimbraAdmin">
  <soap:Header>
    <context xmlns="urn:zimbra">
      <authToken>%s</authToken>
    </context>
  </soap:Header>
  <soap:Body>
    <GetAccountInfoRequest>
      <account by="name">%s</account>
    </GetAccountInfoRequest>
  </soap:Body>
</soap:Envelope>`

const setPasswordTemplate = `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns="urn:zimbraAdmin">
  <soap:Header>
    <context xmlns="urn:zimbra">
      <authToken>%s</authToken>
    </context>
  </soap:Header>
  <soap:Body>
     <SetPasswordRequest id="%s" newPassword="%s" />
  </soap:Body>
</soap:Envelope>`

const modifyAccountTemplate = `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns="urn:zimbraAdmin">
  <soap:Header>
    <context xmlns="urn:zimbra">
      <authToken>%s</authToken>
    </context>
  </soap:Header>
  <soap:Body>
    <ModifyAccountRequest>
      <id>%s</id>
      <a n="%s">%s</a>
    </ModifyAccountRequest>
  </soap:Body>
</soap:Envelope>`

const getAccountTemplate = `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns="urn:zimbraAdmin">
  <soap:Header>
    <context xmlns="urn:zimbra">
      <authToken>%s</authToken>
    </context>
  </soap:Header>
  <soap:Body>
    <GetAccountRequest>
      <account by="id">%s</account>
    </GetAccountRequest>
  </soap:Body>
</soap:Envelope>`

type accountAttr struct {
	Name  string `xml:"n,attr"`
	Value string `xml:",chardata"`
}

type accountInfoEnvelope struct {
	Body struct {
		GetAccountInfoResponse struct {
			Attrs []accountAttr `xml:"a"`
		} `xml:"GetAccountInfoResponse"`
	} `xml:"Body"`
}

type getAccountEnvelope struct {
	Body struct {
		GetAccountResponse struct {
			Account struct {
				Attrs []accountAttr `xml:"a"`
			} `xml:"account"`
		} `xml:"GetAccountResponse"`
	} `xml:"Body"`
}

type modifyAccountEnvelope struct {
	Body struct {
		ModifyAccountResponse *struct{} `xml:"ModifyAccountResponse"`
	} `xml:"Body"`
}

func findAttr(attrs []accountAttr, name string) string {
	for _, attr := range attrs {
		if attr.Name == name {
			return attr.Value
		}
	}
	return ""
}

// ResolveAccountID maps an address to its account id. A missing account
// surfaces as core.ErrAccountNotFound from the fault classifier.
func (c *Client) ResolveAccountID(ctx context.Context, token, address string) (string, error) {
	payload := fmt.Sprintf(accountInfoTemplate, xmlEscape(token), xmlEscape(address))
	data, err := c.roundTrip(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("get account info for %s: %w", address, err)
	}

	var env accountInfoEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("decode account info response: %w", err)
	}
	id := findAttr(env.Body.GetAccountInfoResponse.Attrs, "zimbraId")
	if id == "" {
		return "", fmt.Errorf("account info for %s has no zimbraId attribute", address)
	}
	return id, nil
}

// ResetCredential generates a fresh random password, sets it on the account
// and returns it. An empty account id yields an empty secret without a call.
func (c *Client) ResetCredential(ctx context.Context, token, accountID string) (string, error) {
	if accountID == "" {
		c.logger.Debug("ResetCredential called without account id, skipping")
		return "", nil
	}

	password, err := utils.GeneratePassword()
	if err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}

	payload := fmt.Sprintf(setPasswordTemplate, xmlEscape(token), xmlEscape(accountID), xmlEscape(password))
	if _, err := c.roundTrip(ctx, payload); err != nil {
		return "", fmt.Errorf("set password: %w", err)
	}
	return password, nil
}

// LockAccount sets the account status to locked.
func (c *Client) LockAccount(ctx context.Context, token, accountID string) (string, error) {
	if accountID == "" {
		c.logger.Debug("LockAccount called without account id, skipping")
		return "skipped (no account id)", nil
	}

	payload := fmt.Sprintf(modifyAccountTemplate,
		xmlEscape(token), xmlEscape(accountID), "zimbraAccountStatus", "locked")
	data, err := c.roundTrip(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("lock account: %w", err)
	}

	var env modifyAccountEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("decode modify account response: %w", err)
	}
	if env.Body.ModifyAccountResponse == nil {
		return "failed to change account status", nil
	}
	return "account status set to locked", nil
}

// AppendAccountNote appends note to the account's audit notes. Existing notes
// are read first and preserved; the note attribute is a read-modify-write.
func (c *Client) AppendAccountNote(ctx context.Context, token, accountID, note string) (string, error) {
	if accountID == "" {
		c.logger.Debug("AppendAccountNote called without account id, skipping")
		return "skipped (no account id)", nil
	}

	existing, err := c.getAccountAttr(ctx, token, accountID, "zimbraNotes")
	if err != nil {
		return "", fmt.Errorf("read existing notes: %w", err)
	}
	updated := strings.TrimSpace(existing + "\n" + note)

	payload := fmt.Sprintf(modifyAccountTemplate,
		xmlEscape(token), xmlEscape(accountID), "zimbraNotes", xmlEscape(updated))
	data, err := c.roundTrip(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("write notes: %w", err)
	}

	var env modifyAccountEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("decode modify account response: %w", err)
	}
	if env.Body.ModifyAccountResponse == nil {
		return "failed to add note", nil
	}
	return "note added", nil
}

// GetAccountStatus returns the account's zimbraAccountStatus attribute.
func (c *Client) GetAccountStatus(ctx context.Context, token, accountID string) (string, error) {
	status, err := c.getAccountAttr(ctx, token, accountID, "zimbraAccountStatus")
	if err != nil {
		return "", err
	}
	if status == "" {
		return "", fmt.Errorf("account %s has no zimbraAccountStatus attribute", accountID)
	}
	return status, nil
}

func (c *Client) getAccountAttr(ctx context.Context, token, accountID, name string) (string, error) {
	payload := fmt.Sprintf(getAccountTemplate, xmlEscape(token), xmlEscape(accountID))
	data, err := c.roundTrip(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("get account %s: %w", accountID, err)
	}

	var env getAccountEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("decode get account response: %w", err)
	}
	return findAttr(env.Body.GetAccountResponse.Account.Attrs, name), nil
}
