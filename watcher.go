package metadata

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
)

// DefaultWatchInterval is the poll interval used when neither the
// watcher nor the individual watch sets one.
const DefaultWatchInterval = time.Minute

// Update carries one emission from a channel-mode watch: either a
// changed snapshot or the error that ended the stream.
type Update[T any] struct {
	Data T
	Err  error
}

type watchOptions struct {
	interval     time.Duration
	ignoreErrors bool
	log          logr.Logger
}

// WatchOption adjusts a single watch loop.
type WatchOption func(*watchOptions)

// WithPollInterval sets the time between two polls for this watch.
func WithPollInterval(interval time.Duration) WatchOption {
	return func(o *watchOptions) { o.interval = interval }
}

// WithIgnoreErrors keeps the watch alive across poll failures. A failed
// poll is logged and skipped instead of ending the stream.
func WithIgnoreErrors() WatchOption {
	return func(o *watchOptions) { o.ignoreErrors = true }
}

func withWatchLogger(log logr.Logger) WatchOption {
	return func(o *watchOptions) { o.log = log }
}

// Watch turns poll into a de-duplicated change stream. The first
// successful result is always emitted as a baseline; afterwards a
// result is emitted only when it differs structurally from the last
// emitted one. The sequence is conceptually infinite: it ends when ctx
// is cancelled, when the consumer stops iterating, or when a poll fails
// while errors are not ignored, in which case the failure is yielded
// wrapped in a WatchError and the stream terminates.
//
// The consumer's goroutine runs the loop, suspending only on the poll
// itself and on the inter-poll delay. Structural equality uses go-cmp,
// so snapshot types must either export all fields or provide an Equal
// method.
func Watch[T any](ctx context.Context, poll func(context.Context) (T, error), opts ...WatchOption) iter.Seq2[T, error] {
	o := watchOptions{interval: DefaultWatchInterval, log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(T, error) bool) {
		var last T
		var emitted bool
		for {
			result, err := poll(ctx)
			switch {
			case err != nil && o.ignoreErrors:
				// Swallowed faults must still be observable.
				o.log.Error(err, "watch poll failed, continuing", "interval", o.interval)
			case err != nil:
				var zero T
				yield(zero, &WatchError{Err: err})
				return
			case !emitted || !cmp.Equal(last, result):
				last, emitted = result, true
				if !yield(result, nil) {
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(o.interval):
			}
		}
	}
}

// Watcher drives repeated metadata fetches and exposes them as change
// streams. Obtain one through Client.GetWatcher; a client holds at most
// one watcher.
type Watcher struct {
	client *Client
	log    logr.Logger

	mu              sync.Mutex
	defaultInterval time.Duration
}

// DefaultInterval returns the interval used when a watch does not set
// its own.
func (w *Watcher) DefaultInterval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.defaultInterval
}

func (w *Watcher) setDefaultInterval(interval time.Duration) {
	w.mu.Lock()
	w.defaultInterval = interval
	w.mu.Unlock()
}

// watchOpts prepends the watcher defaults so per-watch options win.
func (w *Watcher) watchOpts(opts []WatchOption) []WatchOption {
	return append([]WatchOption{
		WithPollInterval(w.DefaultInterval()),
		withWatchLogger(w.log),
	}, opts...)
}

// WatchInstance yields the instance snapshot at the start of iteration
// and again whenever it changes.
func (w *Watcher) WatchInstance(ctx context.Context, opts ...WatchOption) iter.Seq2[*InstanceData, error] {
	return Watch(ctx, instrumentPoll(w.client, w.client.GetInstance), w.watchOpts(opts)...)
}

// WatchNetwork yields the network configuration at the start of
// iteration and again whenever it changes.
func (w *Watcher) WatchNetwork(ctx context.Context, opts ...WatchOption) iter.Seq2[*NetworkData, error] {
	return Watch(ctx, instrumentPoll(w.client, w.client.GetNetwork), w.watchOpts(opts)...)
}

// WatchSSHKeys yields the configured SSH keys at the start of iteration
// and again whenever they change.
func (w *Watcher) WatchSSHKeys(ctx context.Context, opts ...WatchOption) iter.Seq2[*SSHKeysData, error] {
	return Watch(ctx, instrumentPoll(w.client, w.client.GetSSHKeys), w.watchOpts(opts)...)
}

// WatchInstanceChan is WatchInstance in channel form: an internal
// goroutine runs the poll loop and delivers updates until the stream
// ends, then closes the channel. Cancel ctx to release the goroutine.
func (w *Watcher) WatchInstanceChan(ctx context.Context, opts ...WatchOption) <-chan Update[*InstanceData] {
	return toChannel(ctx, w.WatchInstance(ctx, opts...))
}

// WatchNetworkChan is WatchNetwork in channel form.
func (w *Watcher) WatchNetworkChan(ctx context.Context, opts ...WatchOption) <-chan Update[*NetworkData] {
	return toChannel(ctx, w.WatchNetwork(ctx, opts...))
}

// WatchSSHKeysChan is WatchSSHKeys in channel form.
func (w *Watcher) WatchSSHKeysChan(ctx context.Context, opts ...WatchOption) <-chan Update[*SSHKeysData] {
	return toChannel(ctx, w.WatchSSHKeys(ctx, opts...))
}

// toChannel adapts a watch sequence into channel delivery.
func toChannel[T any](ctx context.Context, seq iter.Seq2[T, error]) <-chan Update[T] {
	ch := make(chan Update[T])
	go func() {
		defer close(ch)
		for result, err := range seq {
			select {
			case ch <- Update[T]{Data: result, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// instrumentPoll counts watch polls when the client carries metrics.
func instrumentPoll[T any](c *Client, poll func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		result, err := poll(ctx)
		if c.metrics != nil {
			outcome := "success"
			if err != nil {
				outcome = "error"
			}
			c.metrics.watchPolls.WithLabelValues(outcome).Inc()
		}
		return result, err
	}
}
