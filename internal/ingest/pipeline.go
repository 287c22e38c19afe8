// Package ingest implements the message pipeline: monitored-sender check,
// keyword matching, header parsing, dimension resolution, persistence, search
// indexing and dashboard fan-out. Messages from all sources are funneled
// through a single goroutine so that notifications are stored and broadcast
// in arrival order.
package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/slotwatch/go-alert-backend/internal/domain"
	"github.com/slotwatch/go-alert-backend/internal/filter"
	"github.com/slotwatch/go-alert-backend/internal/metrics"
	"github.com/slotwatch/go-alert-backend/internal/parser"
	"github.com/slotwatch/go-alert-backend/internal/repo"
	"github.com/slotwatch/go-alert-backend/internal/ws"
)

// Sender identifies the author of an inbound message. DisplayName is the
// short form (username or first name); FullName is the "first last" form.
// The monitored-sender check accepts a message when either form matches.
type Sender struct {
	DisplayName string
	FullName    string
}

// Chat identifies the originating group chat.
type Chat struct {
	Title string
	ID    string
}

// Message is one inbound event from a message source. Timestamp is epoch
// milliseconds; zero means "now".
type Message struct {
	Text      string
	Sender    Sender
	Chat      Chat
	Timestamp int64
}

// Broadcaster pushes alerts to connected dashboard sessions. *ws.Hub
// satisfies it.
type Broadcaster interface {
	BroadcastAlert(ws.Alert)
}

// Pipeline consumes inbound messages and drives them through the
// filter-parse-resolve-persist-broadcast sequence.
type Pipeline struct {
	db     *gorm.DB
	filter *filter.Filter
	hub    Broadcaster
	log    zerolog.Logger
	in     chan Message
}

// New constructs a Pipeline. Run must be called for enqueued messages to be
// processed.
func New(db *gorm.DB, f *filter.Filter, hub Broadcaster, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		db:     db,
		filter: f,
		hub:    hub,
		log:    log.With().Str("component", "ingest").Logger(),
		in:     make(chan Message, 256),
	}
}

// Enqueue hands one message to the pipeline. It blocks when the buffer is
// full, which preserves arrival order under bursts.
func (p *Pipeline) Enqueue(m Message) {
	p.in <- m
}

// Run processes enqueued messages until ctx is canceled. It is the only
// goroutine touching the store on the ingest path, so rows are assigned IDs
// in arrival order.
func (p *Pipeline) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-p.in:
			p.Process(ctx, m)
		}
	}
}

// Process runs one message through the full pipeline. A resolution error
// drops the message entirely; a persistence or indexing error is logged and
// the alert is still broadcast, so a degraded database never silences the
// dashboard.
func (p *Pipeline) Process(ctx context.Context, m Message) {
	metrics.MessagesReceived.Inc()

	if !p.monitored(m.Sender) {
		metrics.MessagesDropped.Inc()
		p.log.Debug().Str("sender", m.Sender.DisplayName).Msg("sender not monitored, dropping")
		return
	}

	keyword, matched := p.filter.Match(m.Text)
	if matched {
		metrics.KeywordMatches.Inc()
	} else {
		keyword = domain.KeywordAllMessages
	}

	parsed := parser.Parse(m.Text)

	ts := m.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	n := &domain.Notification{
		Message:        m.Text,
		ChatID:         m.Chat.ID,
		IsKeywordMatch: matched,
		IsPrime:        parsed.IsPrime,
		Timestamp:      ts,
	}

	var err error
	if n.SenderID, err = repo.ResolveSender(ctx, p.db, m.Sender.DisplayName); err != nil {
		p.dropResolve(err, "sender")
		return
	}
	if n.GroupID, err = repo.ResolveGroup(ctx, p.db, m.Chat.Title); err != nil {
		p.dropResolve(err, "group")
		return
	}
	if n.KeywordID, err = repo.ResolveKeyword(ctx, p.db, keyword); err != nil {
		p.dropResolve(err, "keyword")
		return
	}
	// Country and Center stay null when header extraction failed. A center is
	// only resolved under a known country, so CenterID implies CountryID.
	if parsed.Country != parser.Unknown {
		countryID, err := repo.ResolveCountry(ctx, p.db, parsed.Country)
		if err != nil {
			p.dropResolve(err, "country")
			return
		}
		n.CountryID = &countryID
		if parsed.Center != parser.Unknown {
			centerID, err := repo.ResolveCenter(ctx, p.db, parsed.Center, countryID)
			if err != nil {
				p.dropResolve(err, "center")
				return
			}
			n.CenterID = &centerID
		}
	}

	if err := repo.CreateNotification(ctx, p.db, n); err != nil {
		metrics.PersistFailures.Inc()
		p.log.Error().Err(err).Str("keyword", keyword).Msg("notification insert failed, broadcasting anyway")
	} else if err := repo.IndexNotification(ctx, p.db, n.ID, n.Message); err != nil {
		p.log.Error().Err(err).Uint("id", n.ID).Msg("search index insert failed")
	}

	p.hub.BroadcastAlert(ws.Alert{
		Keyword:        keyword,
		Message:        m.Text,
		Group:          m.Chat.Title,
		Sender:         m.Sender.DisplayName,
		Timestamp:      ts,
		ChatID:         m.Chat.ID,
		IsKeywordMatch: matched,
	})
	metrics.AlertsBroadcast.Inc()
}

// monitored checks both name forms against the allowlist.
func (p *Pipeline) monitored(s Sender) bool {
	return p.filter.IsMonitoredSender(s.DisplayName) || p.filter.IsMonitoredSender(s.FullName)
}

func (p *Pipeline) dropResolve(err error, dim string) {
	metrics.ResolveFailures.Inc()
	p.log.Error().Err(err).Str("dimension", dim).Msg("reference resolution failed, dropping message")
}
