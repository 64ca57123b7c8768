package core

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/zimbra-queue-guard/internal/metrics"
)

// Classifier evaluates every aggregate sender entry of a queue snapshot
// against the blocking criteria and hands flagged senders to the remediator.
type Classifier struct {
	geo              GeoResolver
	remediator       AccountRemediator
	logger           *zap.Logger
	threshold        int
	domainSuffix     string
	knownServices    []string
	homeCountry      string
	unknownIsForeign bool
}

// NewClassifier creates a new classifier.
func NewClassifier(
	geo GeoResolver,
	remediator AccountRemediator,
	logger *zap.Logger,
	threshold int,
	domainSuffix string,
	knownServices []string,
	homeCountry string,
	unknownIsForeign bool,
) *Classifier {
	return &Classifier{
		geo:              geo,
		remediator:       remediator,
		logger:           logger,
		threshold:        threshold,
		domainSuffix:     domainSuffix,
		knownServices:    knownServices,
		homeCountry:      homeCountry,
		unknownIsForeign: unknownIsForeign,
	}
}

// BuildOriginMap folds the snapshot's connection records into a map from
// sender address to its most recently observed origin IP. Later records for
// the same sender overwrite earlier ones.
func (c *Classifier) BuildOriginMap(connections []Connection) map[string]string {
	origins := make(map[string]string, len(connections))
	for _, conn := range connections {
		if conn.Address == "" || conn.OriginIP == "" {
			continue
		}
		origins[conn.Address] = conn.OriginIP
	}
	return origins
}

// ProcessSnapshot classifies every sender in the snapshot, recording new
// origin IPs into history regardless of the verdict, and remediates the
// flagged ones. Only cycle-fatal remediation errors are returned; history
// mutations made before such an error are preserved.
func (c *Classifier) ProcessSnapshot(ctx context.Context, token string, snapshot *QueueSnapshot, history IPHistory) error {
	origins := c.BuildOriginMap(snapshot.Connections)

	for _, entry := range snapshot.Senders {
		verdict, ok := c.classify(ctx, entry, origins, history)
		if !ok {
			continue
		}

		metrics.SendersClassified.Inc()
		c.logger.Info("Classified sender",
			zap.String("address", verdict.Address),
			zap.Int("count", verdict.Count),
			zap.String("origin_ip", verdict.OriginIP),
			zap.String("country", verdict.Country),
			zap.Bool("foreign", verdict.Foreign),
			zap.Bool("known_service", verdict.KnownService),
			zap.Bool("new_ip", verdict.NewIP),
			zap.Bool("exceeds_threshold", verdict.ExceedsThreshold),
			zap.Bool("monitored_domain", verdict.MonitoredDomain))

		if !verdict.ShouldRemediate() {
			continue
		}
		if err := c.remediator.Remediate(ctx, token, *verdict); err != nil {
			return err
		}
	}
	return nil
}

// classify evaluates one aggregate entry. It returns false when the entry
// cannot be classified this cycle (malformed address or no attributable
// origin); in that case no state is mutated.
func (c *Classifier) classify(ctx context.Context, entry SenderTotal, origins map[string]string, history IPHistory) (*Verdict, bool) {
	if !strings.Contains(entry.Address, "@") {
		c.logger.Debug("Skipping invalid sender address", zap.String("address", entry.Address))
		return nil, false
	}

	originIP, ok := origins[entry.Address]
	if !ok {
		c.logger.Info("No origin IP for sender, skipping",
			zap.String("address", entry.Address),
			zap.Int("count", entry.Count))
		return nil, false
	}

	// Resolver failure degrades the signal instead of aborting the cycle.
	country := "unknown"
	hostname := ""
	if geo, err := c.geo.Resolve(ctx, originIP); err != nil {
		c.logger.Warn("Geolocation unavailable, classifying with degraded signal",
			zap.String("ip", originIP),
			zap.Error(err))
	} else {
		country = geo.Country
		hostname = geo.Hostname
	}

	verdict := &Verdict{
		Address:          entry.Address,
		Count:            entry.Count,
		OriginIP:         originIP,
		Country:          country,
		Foreign:          c.isForeign(country),
		KnownService:     c.isKnownService(hostname),
		NewIP:            !history.Has(entry.Address, originIP),
		ExceedsThreshold: entry.Count > c.threshold,
		MonitoredDomain:  c.domainSuffix != "" && strings.Contains(entry.Address, c.domainSuffix),
	}

	// Every new IP is remembered even when the sender is not remediated, so
	// the same origin is not reported as new again next cycle.
	if verdict.NewIP {
		history.Add(entry.Address, originIP)
	}

	return verdict, true
}

func (c *Classifier) isForeign(country string) bool {
	if country == "unknown" {
		return c.unknownIsForeign
	}
	return country != c.homeCountry
}

func (c *Classifier) isKnownService(hostname string) bool {
	if hostname == "" {
		return false
	}
	for _, service := range c.knownServices {
		if strings.Contains(hostname, service) {
			return true
		}
	}
	return false
}
