package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ffaiyaz23/commercechat/internal/chat"
	"github.com/ffaiyaz23/commercechat/internal/search"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const placeholderText = "🤖 Thinking…"

// Poster is the subset of *slack.Client the relay needs.
type Poster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
	UpdateMessage(channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
}

// workItem is a single mention to answer.
type workItem struct {
	channel string
	ts      string
	user    string
	text    string
}

// updateItem is the reply to post back.
type updateItem struct {
	channel string
	ts      string
	text    string
}

var tracer = otel.Tracer("commercechat/slack")

// Relay answers app mentions: plain text goes to the chat service, and
// "search <query>" goes to the recommendation endpoint.
// Mentions flow dispatcher → worker pool → poster.
type Relay struct {
	api        Poster
	chatter    chat.Chatter
	rec        search.Recommender
	workCh     chan workItem
	updateCh   chan updateItem
	poolSize   int
	streamMode string
	workers    sync.WaitGroup
	posterDone chan struct{}

	// stopMu guards stopped and the close of workCh against late enqueues.
	stopMu  sync.RWMutex
	stopped bool

	// Throttle spaces out Slack API calls.
	Throttle time.Duration
}

// New builds a relay; call Start before handling events.
func New(api Poster, chatter chat.Chatter, rec search.Recommender, poolSize int, streamMode string) *Relay {
	if poolSize < 1 {
		poolSize = 1
	}
	return &Relay{
		api:        api,
		chatter:    chatter,
		rec:        rec,
		workCh:     make(chan workItem, poolSize),
		updateCh:   make(chan updateItem, poolSize*2),
		poolSize:   poolSize,
		streamMode: streamMode,
		posterDone: make(chan struct{}),
		Throttle:   50 * time.Millisecond,
	}
}

// Start fires up the poster and the worker pool.
func (r *Relay) Start(ctx context.Context) {
	go r.startPoster(ctx)
	for i := 0; i < r.poolSize; i++ {
		r.workers.Add(1)
		go func() {
			defer r.workers.Done()
			r.startWorker(ctx)
		}()
	}
}

// Stop drains queued mentions and waits for every reply to be posted.
// Mentions arriving after Stop are dropped. Stop is safe to call more than once.
func (r *Relay) Stop() {
	r.stopMu.Lock()
	if r.stopped {
		r.stopMu.Unlock()
		return
	}
	r.stopped = true
	close(r.workCh)
	r.stopMu.Unlock()

	r.workers.Wait()
	close(r.updateCh)
	<-r.posterDone
}

// HandleAppMention posts a placeholder and enqueues the mention.
func (r *Relay) HandleAppMention(ctx context.Context, ev *slackevents.AppMentionEvent) {
	_, span := tracer.Start(ctx, "ProcessAppMention",
		trace.WithAttributes(
			attribute.String("slack.user_id", ev.User),
			attribute.String("slack.channel_id", ev.Channel),
		),
	)
	defer span.End()

	text := ParseAppMentionText(ev.Text, "")
	if text == "" || r.isStopped() {
		return
	}

	opts := []slack.MsgOption{slack.MsgOptionText(placeholderText, false)}
	if r.streamMode == "thread" {
		opts = append(opts, slack.MsgOptionTS(ev.TimeStamp))
	}
	channelID, ts, err := r.api.PostMessage(ev.Channel, opts...)
	if err != nil {
		span.RecordError(err)
		zap.L().Error("failed to post placeholder",
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.Error(err),
		)
		return
	}
	if r.streamMode == "thread" {
		ts = ev.TimeStamp
	}

	if !r.enqueue(workItem{channel: channelID, ts: ts, user: ev.User, text: text}) {
		zap.S().Warnw("relay stopped, dropping mention",
			"trace_id", span.SpanContext().TraceID().String(),
			"channel", channelID,
		)
		return
	}
	zap.S().Infow("enqueued mention",
		"trace_id", span.SpanContext().TraceID().String(),
		"channel", channelID,
		"ts", ts,
		"text", text,
	)
}

// enqueue hands wi to the worker pool unless the relay has been stopped.
func (r *Relay) enqueue(wi workItem) bool {
	r.stopMu.RLock()
	defer r.stopMu.RUnlock()
	if r.stopped {
		return false
	}
	r.workCh <- wi
	return true
}

func (r *Relay) isStopped() bool {
	r.stopMu.RLock()
	defer r.stopMu.RUnlock()
	return r.stopped
}

func (r *Relay) startWorker(parentCtx context.Context) {
	for wi := range r.workCh {
		ctx, span := tracer.Start(parentCtx, "AnswerMention",
			trace.WithAttributes(attribute.String("slack.user_id", wi.user)),
		)
		res := r.answer(ctx, wi.text)
		if res.err != nil {
			span.RecordError(res.err)
			zap.S().Errorw("mention answer failed", "error", res.err, "user", wi.user)
		}
		span.End()
		r.updateCh <- updateItem{channel: wi.channel, ts: wi.ts, text: res.text}
	}
}

type result struct {
	text string
	err  error
}

func (r *Relay) answer(ctx context.Context, text string) result {
	if q, ok := searchQuery(text); ok {
		raw, err := r.rec.Recommend(ctx, q)
		if err != nil {
			return result{text: "⚠ " + chat.ErrorText, err: err}
		}
		pretty, err := search.Format(raw)
		if err != nil {
			return result{text: "⚠ " + chat.ErrorText, err: err}
		}
		return result{text: "```\n" + pretty + "\n```"}
	}
	reply, err := r.chatter.SendChatMessage(ctx, text)
	if err != nil {
		return result{text: "⚠ " + chat.ErrorText, err: err}
	}
	return result{text: reply}
}

// startPoster serializes replies back to Slack.
func (r *Relay) startPoster(ctx context.Context) {
	defer close(r.posterDone)
	for ui := range r.updateCh {
		_, span := tracer.Start(ctx, "PostSlackReply",
			trace.WithAttributes(attribute.String("slack.stream_mode", r.streamMode)),
		)

		var err error
		if r.streamMode == "thread" {
			_, _, err = r.api.PostMessage(ui.channel,
				slack.MsgOptionText(ui.text, false),
				slack.MsgOptionTS(ui.ts),
			)
		} else {
			_, _, _, err = r.api.UpdateMessage(ui.channel, ui.ts,
				slack.MsgOptionText(ui.text, false),
			)
		}
		if err != nil {
			span.RecordError(err)
			zap.S().Errorw("slack reply error", "mode", r.streamMode, "error", err)
		}

		span.End()
		if r.Throttle > 0 {
			time.Sleep(r.Throttle)
		}
	}
}

// EventsHandler returns an HTTP handler that verifies Slack signatures,
// answers URL verification challenges and dispatches app mentions to relay.
func EventsHandler(relay *Relay, signingSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "read body error", http.StatusBadRequest)
			return
		}
		verifier, err := slack.NewSecretsVerifier(r.Header, signingSecret)
		if err != nil {
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
		if _, err := verifier.Write(raw); err != nil {
			http.Error(w, "signature error", http.StatusInternalServerError)
			return
		}
		if err := verifier.Ensure(); err != nil {
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		evt, err := slackevents.ParseEvent(raw, slackevents.OptionNoVerifyToken())
		if err != nil {
			http.Error(w, "parse event error", http.StatusBadRequest)
			return
		}
		if evt.Type == slackevents.URLVerification {
			var ch slackevents.ChallengeResponse
			if err := json.Unmarshal(raw, &ch); err != nil {
				http.Error(w, "invalid challenge", http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(ch.Challenge))
			return
		}
		if evt.Type == slackevents.CallbackEvent {
			if ev, ok := evt.InnerEvent.Data.(*slackevents.AppMentionEvent); ok {
				relay.HandleAppMention(r.Context(), ev)
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
