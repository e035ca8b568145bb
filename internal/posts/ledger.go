// Package posts implements the per-city post ledger: ordered collections
// of user posts kept newest-first across append, edit, and delete.
package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/umbrella-forecast/backend/internal/observability"
	"github.com/umbrella-forecast/backend/internal/store"
)

const collection = "posts"

// timestampLayout matches the ISO-8601 millisecond format the dashboard
// has always written; fixed precision keeps lexical and temporal order
// in agreement.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	// ErrPostNotFound is returned by Edit and Get for an unknown post id.
	ErrPostNotFound = errors.New("post not found")

	// ErrEmptyContent is returned by Edit when the replacement text is empty.
	ErrEmptyContent = errors.New("post content must not be empty")
)

// Post is one user-authored entry in a city's ledger.
type Post struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	UserID    string `json:"userId"`
}

// cityDocument is the persisted shape: one document per city.
type cityDocument struct {
	Posts []Post `json:"posts"`
}

// Ledger manages city-keyed post sequences on top of the document store.
// Writes are read-modify-write with last-write-wins at the storage layer;
// the mutex serializes writers within this process only.
type Ledger struct {
	store   store.Documents
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	mu sync.Mutex
}

// NewLedger creates a Ledger. A nil clock falls back to real time.
func NewLedger(docs store.Documents, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Ledger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Ledger{store: docs, clock: clock, logger: logger, metrics: metrics}
}

// Timestamp returns the current time formatted the way ledger entries
// store it.
func (l *Ledger) Timestamp() string {
	return l.clock.Now().UTC().Format(timestampLayout)
}

// LoadCity returns the city's posts sorted newest-first. The persisted
// sequence carries no ordering guarantee, so the sort happens on every
// load. A city with no document yields an empty slice.
func (l *Ledger) LoadCity(ctx context.Context, city string) ([]Post, error) {
	var doc cityDocument
	err := l.store.Get(ctx, collection, city, &doc)
	if errors.Is(err, store.ErrNotFound) {
		return []Post{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load posts for %q: %w", city, err)
	}
	SortByRecency(doc.Posts)
	return doc.Posts, nil
}

// Get finds a single post by id within a city's ledger.
func (l *Ledger) Get(ctx context.Context, city, postID string) (Post, error) {
	postList, err := l.LoadCity(ctx, city)
	if err != nil {
		return Post{}, err
	}
	for _, p := range postList {
		if p.ID == postID {
			return p, nil
		}
	}
	return Post{}, ErrPostNotFound
}

// Append inserts a post into the city's sequence and re-establishes the
// newest-first order. No deduplication by id: callers generate unique ids.
func (l *Ledger) Append(ctx context.Context, city string, post Post) ([]Post, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	postList, err := l.LoadCity(ctx, city)
	if err != nil {
		return nil, err
	}

	postList = append(postList, post)
	SortByRecency(postList)

	if err := l.save(ctx, city, postList); err != nil {
		return nil, err
	}
	l.logger.Info("post appended", "city", city, "post_id", post.ID, "user_id", post.UserID)
	l.metrics.LedgerOps.WithLabelValues("append").Inc()
	return postList, nil
}

// Edit replaces the content of an existing post and refreshes its
// timestamp to the current time, which moves it to the front under the
// newest-first invariant. Authorization is the caller's responsibility.
func (l *Ledger) Edit(ctx context.Context, city, postID, newContent string) (Post, error) {
	if newContent == "" {
		return Post{}, ErrEmptyContent
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	postList, err := l.LoadCity(ctx, city)
	if err != nil {
		return Post{}, err
	}

	idx := -1
	for i, p := range postList {
		if p.ID == postID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Post{}, ErrPostNotFound
	}

	postList[idx].Content = newContent
	postList[idx].Timestamp = l.Timestamp()
	SortByRecency(postList)

	if err := l.save(ctx, city, postList); err != nil {
		return Post{}, err
	}
	l.logger.Info("post edited", "city", city, "post_id", postID)
	l.metrics.LedgerOps.WithLabelValues("edit").Inc()
	return findByID(postList, postID), nil
}

// Delete removes a post from the city's sequence. Removing an unknown id
// is a silent no-op so deletes stay idempotent.
func (l *Ledger) Delete(ctx context.Context, city, postID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	postList, err := l.LoadCity(ctx, city)
	if err != nil {
		return err
	}

	kept := postList[:0]
	for _, p := range postList {
		if p.ID != postID {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(postList) {
		return nil
	}

	if err := l.save(ctx, city, kept); err != nil {
		return err
	}
	l.logger.Info("post deleted", "city", city, "post_id", postID)
	l.metrics.LedgerOps.WithLabelValues("delete").Inc()
	return nil
}

func (l *Ledger) save(ctx context.Context, city string, postList []Post) error {
	if err := l.store.Set(ctx, collection, city, cityDocument{Posts: postList}, 0); err != nil {
		return fmt.Errorf("save posts for %q: %w", city, err)
	}
	return nil
}

// SortByRecency orders posts descending by timestamp, newest first.
// Timestamps that fail to parse sort by raw string comparison, matching
// the lexical fallback of the stored ISO-8601 format.
func SortByRecency(postList []Post) {
	sort.SliceStable(postList, func(i, j int) bool {
		ti, okI := parseStamp(postList[i].Timestamp)
		tj, okJ := parseStamp(postList[j].Timestamp)
		if okI && okJ {
			return ti.After(tj)
		}
		return postList[i].Timestamp > postList[j].Timestamp
	})
}

func parseStamp(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func findByID(postList []Post, id string) Post {
	for _, p := range postList {
		if p.ID == id {
			return p
		}
	}
	return Post{}
}
