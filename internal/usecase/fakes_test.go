package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/fiapx/fiapx-dataset-prep/internal/domain/entity"
	"github.com/fiapx/fiapx-dataset-prep/internal/domain/port"
)

type fakeRepo struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]entity.Job
	findErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{jobs: map[uuid.UUID]entity.Job{}}
}

func (r *fakeRepo) Create(_ context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *fakeRepo) Update(_ context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	job, ok := r.jobs[id]
	if !ok {
		return nil, port.ErrJobNotFound
	}
	return &job, nil
}

type fakeStorage struct {
	videos      map[string]string
	downloadErr error
	uploads     map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{videos: map[string]string{}, uploads: map[string][]byte{}}
}

func (s *fakeStorage) DownloadVideo(_ context.Context, key, dest string) error {
	if s.downloadErr != nil {
		return s.downloadErr
	}
	content, ok := s.videos[key]
	if !ok {
		return fmt.Errorf("%w: %s", port.ErrVideoNotFound, key)
	}
	return os.WriteFile(dest, []byte(content), 0o644)
}

func (s *fakeStorage) UploadArchive(_ context.Context, key string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: %d != %d", len(data), size)
	}
	s.uploads[key] = data
	return nil
}

// fakeFrames writes frames frames per video.
type fakeFrames struct {
	frames    int
	err       error
	intervals []int
	videos    []string
}

func (f *fakeFrames) ExtractFrames(_ context.Context, videoPath, outputDir string, interval int) (*port.FrameExtractionResult, error) {
	f.intervals = append(f.intervals, interval)
	f.videos = append(f.videos, videoPath)
	if f.err != nil {
		return nil, f.err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	stem := filepath.Base(videoPath)
	stem = stem[:len(stem)-len(filepath.Ext(stem))]
	res := &port.FrameExtractionResult{VideoDuration: 2.5}
	for k := 1; k <= f.frames; k++ {
		p := filepath.Join(outputDir, fmt.Sprintf("%s_frame%d.jpg", stem, k))
		if err := os.WriteFile(p, []byte("frame"), 0o644); err != nil {
			return nil, err
		}
		res.FramePaths = append(res.FramePaths, p)
	}
	res.FrameCount = len(res.FramePaths)
	return res, nil
}

type fakeClips struct {
	err   error
	calls []ClipRequest
}

func (f *fakeClips) ExtractClips(_ context.Context, videoPath string, clips []entity.ClipSpec, outputDir string) ([]string, error) {
	f.calls = append(f.calls, ClipRequest{Video: videoPath, Clips: clips})
	if f.err != nil {
		return nil, f.err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	stem := filepath.Base(videoPath)
	stem = stem[:len(stem)-len(filepath.Ext(stem))]
	var paths []string
	for i := range clips {
		p := filepath.Join(outputDir, fmt.Sprintf("%s_clip%d.mp4", stem, i+1))
		if err := os.WriteFile(p, []byte("clip"), 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

type fakePublisher struct {
	msgs [][]byte
}

func (p *fakePublisher) PublishStatus(_ context.Context, msg []byte) error {
	p.msgs = append(p.msgs, msg)
	return nil
}

type dlqEntry struct {
	body   []byte
	reason string
}

type fakeDLQ struct {
	entries []dlqEntry
}

func (d *fakeDLQ) PublishToDLQ(_ context.Context, msg []byte, reason string) error {
	d.entries = append(d.entries, dlqEntry{body: msg, reason: reason})
	return nil
}

type notification struct {
	email, jobID, source, errMsg string
}

type fakeNotifier struct {
	sent []notification
}

func (n *fakeNotifier) NotifyFailure(_ context.Context, email, jobID, source, errMsg string) error {
	n.sent = append(n.sent, notification{email, jobID, source, errMsg})
	return nil
}

func ptr[T any](v T) *T { return &v }
