package policy

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultTags is the tag catalog used when the policy file defines none.
var DefaultTags = []string{
	"Software Engineer",
	"Front-end Developer",
	"Back-end Developer",
	"Full-stack Developer",
	"Web Developer",
	"UI/UX Designer",
	"Graphic Designer",
	"Data Scientist",
	"Product Manager",
	"Project Manager",
	"Business Analyst",
	"Marketing Manager",
	"Sales Representative",
	"Customer Service Representative",
	"HR Manager",
	"Financial Analyst",
	"Content Writer",
	"Teacher/Educator",
	"Healthcare Professional",
	"Legal Counsel",
}

// ErrUnknownTag is returned by ValidateTags.
var ErrUnknownTag = errors.New("unknown template tag")

// File is the on-disk layout of ADMIN_POLICY_FILE.
type File struct {
	Admins []string `yaml:"admins"`
	Tags   []string `yaml:"tags"`
}

// Policy decides who may manage templates and which tags they may use.
type Policy struct {
	admins map[string]struct{}
	tags   []string
}

// New builds a Policy from an explicit admin list and tag catalog.
// An empty tag catalog falls back to DefaultTags.
func New(admins, tags []string) *Policy {
	p := &Policy{admins: make(map[string]struct{}, len(admins))}
	for _, id := range admins {
		if id = strings.TrimSpace(id); id != "" {
			p.admins[id] = struct{}{}
		}
	}
	if len(tags) == 0 {
		tags = DefaultTags
	}
	p.tags = slices.Clone(tags)
	return p
}

// Load merges envAdmins with the policy file at path. An empty path uses
// envAdmins and DefaultTags only.
func Load(path string, envAdmins []string, logger *zap.Logger) (*Policy, error) {
	if path == "" {
		if len(envAdmins) == 0 {
			logger.Warn("No template admins configured; admin routes will reject every request")
		}
		return New(envAdmins, nil), nil
	}

	logger.Info("Loading admin policy", zap.String("path", path))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read admin policy %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse admin policy %s: %w", path, err)
	}

	p := New(append(slices.Clone(envAdmins), f.Admins...), f.Tags)
	logger.Info("Admin policy loaded", zap.Int("admins", len(p.admins)), zap.Int("tags", len(p.tags)))
	return p, nil
}

// IsAdmin reports whether uid may manage templates.
func (p *Policy) IsAdmin(uid string) bool {
	if uid == "" {
		return false
	}
	_, ok := p.admins[uid]
	return ok
}

// Tags returns a copy of the tag catalog.
func (p *Policy) Tags() []string {
	return slices.Clone(p.tags)
}

// ValidateTags rejects tags outside the catalog and duplicates.
func (p *Policy) ValidateTags(tags []string) error {
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if !slices.Contains(p.tags, tag) {
			return fmt.Errorf("%w: %q", ErrUnknownTag, tag)
		}
		if _, dup := seen[tag]; dup {
			return fmt.Errorf("duplicate tag %q", tag)
		}
		seen[tag] = struct{}{}
	}
	return nil
}
