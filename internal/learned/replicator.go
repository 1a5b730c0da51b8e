package learned

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/garyellow/aulabot-go/internal/logger"
	"github.com/garyellow/aulabot-go/internal/r2client"
)

// DefaultSnapshotKey is the object key of the learned snapshot.
const DefaultSnapshotKey = "aulabot/learned.json.zst"

// ObjectStore is the subset of r2client.Client the replicator uses.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// Replicator copies the learned map to object storage as zstd JSON.
type Replicator struct {
	objects ObjectStore
	key     string
	log     *logger.Logger
}

// NewReplicator creates a replicator writing key (DefaultSnapshotKey when
// empty).
func NewReplicator(objects ObjectStore, key string, log *logger.Logger) *Replicator {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &Replicator{objects: objects, key: key, log: log.WithModule("learned_replicator")}
}

// Upload snapshots the whole map.
func (r *Replicator) Upload(ctx context.Context, m map[string]string) error {
	data, err := encode(m)
	if err != nil {
		return err
	}
	compressed, err := r2client.Compress(data)
	if err != nil {
		return err
	}
	if _, err := r.objects.Upload(ctx, r.key, bytes.NewReader(compressed), "application/zstd"); err != nil {
		return err
	}
	return nil
}

// Fetch downloads the snapshot. A missing snapshot is an empty map.
func (r *Replicator) Fetch(ctx context.Context) (map[string]string, error) {
	body, _, err := r.objects.Download(ctx, r.key)
	if errors.Is(err, r2client.ErrNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	data, err := r2client.Decompress(body)
	if err != nil {
		return nil, err
	}
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("learned: decode snapshot: %w", err)
	}
	return m, nil
}

// Restore fills an empty local store from the snapshot. It returns the
// number of restored pairs; a store that already has pairs is left alone.
func (r *Replicator) Restore(ctx context.Context, store Store) (int, error) {
	local, err := store.Load(ctx)
	if err != nil {
		return 0, err
	}
	if len(local) > 0 {
		return 0, nil
	}

	remote, err := r.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	if len(remote) == 0 {
		return 0, nil
	}
	if err := saveAll(ctx, store, remote); err != nil {
		return 0, err
	}
	r.log.WithField("pairs", len(remote)).Info("Restored learned knowledge from snapshot")
	return len(remote), nil
}

// ReplicatedStore uploads a fresh snapshot after saves. Uploads run on a
// background goroutine and saves made while one is in flight are folded into
// the next. Upload failures are logged and do not fail the save.
type ReplicatedStore struct {
	Store
	rep   *Replicator
	dirty chan struct{}
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// uploadTimeout bounds one snapshot upload.
const uploadTimeout = 30 * time.Second

// NewReplicatedStore wraps store and starts the uploader. Close stops it.
func NewReplicatedStore(store Store, rep *Replicator) *ReplicatedStore {
	s := &ReplicatedStore{
		Store: store,
		rep:   rep,
		dirty: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	s.wg.Go(s.run)
	return s
}

// Save writes locally and schedules an upload.
func (s *ReplicatedStore) Save(ctx context.Context, question, answer string) error {
	if err := s.Store.Save(ctx, question, answer); err != nil {
		return err
	}
	select {
	case s.dirty <- struct{}{}:
	default:
	}
	return nil
}

// Close uploads any pending snapshot and stops the uploader.
func (s *ReplicatedStore) Close() error {
	s.once.Do(func() { close(s.done) })
	s.wg.Wait()
	return nil
}

func (s *ReplicatedStore) run() {
	for {
		select {
		case <-s.dirty:
			s.upload()
		case <-s.done:
			select {
			case <-s.dirty:
				s.upload()
			default:
			}
			return
		}
	}
}

func (s *ReplicatedStore) upload() {
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()

	m, err := s.Store.Load(ctx)
	if err == nil {
		err = s.rep.Upload(ctx, m)
	}
	if err != nil {
		s.rep.log.WithError(err).Warn("Learned snapshot upload failed")
	}
}
