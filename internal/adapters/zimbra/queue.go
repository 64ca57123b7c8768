package zimbra

import (
	"context"
	"encoding/xml"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/zimbra-queue-guard/internal/core"
)

const mailQueueTemplate = `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns="urn:zimbraAdmin">
  <soap:Header>
    <context xmlns="urn:zimbra">
      <authToken>%s</authToken>
    </context>
  </soap:Header>
  <soap:Body>
    <GetMailQueueRequest>
      <server name="%s">
        <queue name="%s" scan="1" wait="10">
          <query offset="0" limit="%d"></query>
        </queue>
      </server>
    </GetMailQueueRequest>
  </soap:Body>
</soap:Envelope>`

type queueSummary struct {
	Type    string `xml:"type,attr"`
	Entries []struct {
		Text  string `xml:"t,attr"`
		Count int    `xml:"n,attr"`
	} `xml:"qsi"`
}

type queueItem struct {
	From     string `xml:"from,attr"`
	Received string `xml:"received,attr"`
}

type mailQueueEnvelope struct {
	Body struct {
		GetMailQueueResponse struct {
			Server struct {
				Queue struct {
					Summaries []queueSummary `xml:"qs"`
					Items     []queueItem    `xml:"qi"`
				} `xml:"queue"`
			} `xml:"server"`
		} `xml:"GetMailQueueResponse"`
	} `xml:"Body"`
}

// FetchQueueSnapshot reads the deferred queue of the named server. A backend
// scan already in progress surfaces as core.ErrAlreadyInProgress.
func (c *Client) FetchQueueSnapshot(ctx context.Context, token, serverName string) (*core.QueueSnapshot, error) {
	payload := fmt.Sprintf(mailQueueTemplate,
		xmlEscape(token), xmlEscape(serverName), xmlEscape(c.cfg.QueueName), c.cfg.ScanLimit)
	data, err := c.roundTrip(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("fetch mail queue: %w", err)
	}

	var env mailQueueEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode mail queue response: %w", err)
	}

	queue := env.Body.GetMailQueueResponse.Server.Queue
	snapshot := &core.QueueSnapshot{
		HasSummaries: len(queue.Summaries) > 0,
		HasItems:     len(queue.Items) > 0,
	}

	for _, summary := range queue.Summaries {
		switch summary.Type {
		case "from":
			snapshot.FromSummary = true
			for _, entry := range summary.Entries {
				snapshot.Senders = append(snapshot.Senders, core.SenderTotal{
					Address: entry.Text,
					Count:   entry.Count,
				})
			}
		case "received":
			snapshot.ReceivedSummary = true
		}
	}

	for _, item := range queue.Items {
		if item.From == "" || item.Received == "" {
			continue
		}
		snapshot.Connections = append(snapshot.Connections, core.Connection{
			Address:  item.From,
			OriginIP: item.Received,
		})
	}

	c.logger.Debug("Fetched queue snapshot",
		zap.String("server", serverName),
		zap.Int("senders", len(snapshot.Senders)),
		zap.Int("connections", len(snapshot.Connections)))

	return snapshot, nil
}
