package core

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"craftresume-backend-go/internal/db"
	"craftresume-backend-go/internal/models"
	"craftresume-backend-go/internal/storage"
)

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]*models.UserProfile
	getErr    error
	createErr error
	gets      int
	creates   int
	// onCreate runs before Create stores the profile.
	onCreate func()
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.UserProfile)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, uid string) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.users[uid]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", uid, db.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.UserProfile) error {
	if r.onCreate != nil {
		r.onCreate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.users[u.UID]; ok {
		return fmt.Errorf("user %s: %w", u.UID, db.ErrAlreadyExists)
	}
	cp := *u
	r.users[u.UID] = &cp
	return nil
}

type fakeTemplateRepo struct {
	mu        sync.Mutex
	templates map[string]*models.Template
	listErr   error
	createErr error
	deleteErr error
	lists     int
	deletes   []string
}

func newFakeTemplateRepo(existing ...*models.Template) *fakeTemplateRepo {
	r := &fakeTemplateRepo{templates: make(map[string]*models.Template)}
	for _, t := range existing {
		r.templates[t.ID] = t
	}
	return r
}

func (r *fakeTemplateRepo) List(context.Context) ([]*models.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*models.Template, 0, len(r.templates))
	for _, t := range r.templates {
		if !t.Deleted {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTemplateRepo) GetByID(_ context.Context, id string) (*models.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, db.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTemplateRepo) CreateSequential(_ context.Context, tpl *models.Template, name db.NameFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.templates[tpl.ID]; ok {
		return fmt.Errorf("template %s: %w", tpl.ID, db.ErrAlreadyExists)
	}
	live := 0
	for _, t := range r.templates {
		if !t.Deleted {
			live++
		}
	}
	tpl.Name = name(live)
	tpl.Timestamp = time.UnixMilli(1_700_000_000_500).UTC()
	cp := *tpl
	r.templates[tpl.ID] = &cp
	return nil
}

func (r *fakeTemplateRepo) MarkDeleted(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok {
		return fmt.Errorf("template %s: %w", id, db.ErrNotFound)
	}
	t.Deleted = true
	return nil
}

func (r *fakeTemplateRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, id)
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.templates, id)
	return nil
}

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploads   int
	deletes   []string
	uploadErr error
	deleteErr error
	// steps are the transferred byte counts reported before completion.
	steps []int64
	// afterStep runs after every progress report.
	afterStep func()
	// block, when set, holds Upload until it is closed.
	block chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Upload(_ context.Context, path, _ string, r io.Reader, size int64, progress storage.ProgressFunc) (string, error) {
	s.mu.Lock()
	s.uploads++
	s.mu.Unlock()

	if s.block != nil {
		<-s.block
	}
	for _, step := range s.steps {
		progress(step, size)
		if s.afterStep != nil {
			s.afterStep()
		}
	}
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	progress(size, size)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = data
	return "https://files.test/" + path, nil
}

func (s *fakeStore) Delete(_ context.Context, objectURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, objectURL)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return nil
}

func (s *fakeStore) Owns(objectURL string) bool {
	return strings.HasPrefix(objectURL, "https://files.test/")
}

func (s *fakeStore) uploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}
