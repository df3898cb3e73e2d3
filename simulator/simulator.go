package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"yatube/internal/engine"
	"yatube/internal/forms"
	"yatube/internal/models"
)

// Password given to every simulated account.
const Password = "simulated-pass"

type Config struct {
	NumUsers        int
	NumGroups       int
	PostsPerUser    int // Average; prolific authors get more
	FollowsPerUser  int
	CommentsPerPost int // Average
	ZipfS           float64
	Workers         int
	Seed            int64
}

func DefaultConfig() Config {
	return Config{
		NumUsers:        50,
		NumGroups:       5,
		PostsPerUser:    5,
		FollowsPerUser:  8,
		CommentsPerPost: 2,
		ZipfS:           1.07,
		Workers:         5,
		Seed:            time.Now().UnixNano(),
	}
}

func (c Config) validate() error {
	switch {
	case c.NumUsers < 2:
		return errors.New("at least 2 users are required")
	case c.NumGroups < 0 || c.PostsPerUser < 0 || c.FollowsPerUser < 0 || c.CommentsPerPost < 0:
		return errors.New("counts must not be negative")
	case c.ZipfS <= 1:
		return fmt.Errorf("zipf parameter must be greater than 1, got %.2f", c.ZipfS)
	case c.Workers < 1:
		return errors.New("at least 1 worker is required")
	}
	return nil
}

// Summary is a snapshot of what a run produced.
type Summary struct {
	Users            int
	Groups           int
	Posts            int
	Comments         int
	Follows          int
	DuplicateFollows int
	SelfFollows      int
	Failures         int
	Duration         time.Duration
}

type stats struct {
	mu        sync.Mutex
	startTime time.Time
	summary   Summary
}

func (s *stats) update(fn func(*Summary)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.summary)
}

func (s *stats) snapshot() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary := s.summary
	summary.Duration = time.Since(s.startTime)
	return summary
}

// Simulator fills a database with users, groups, posts, follows and comments by driving the
// engine directly. Author popularity follows a Zipf distribution, so a few authors collect
// most of the followers and write most of the posts.
type Simulator struct {
	config Config
	engine *engine.Engine
	rng    *rand.Rand
	stats  *stats

	users  []*models.User
	groups []*models.Group
	posts  []*models.Post
}

func New(config Config, eng *engine.Engine) *Simulator {
	return &Simulator{
		config: config,
		engine: eng,
		rng:    rand.New(rand.NewSource(config.Seed)),
		stats:  &stats{},
	}
}

// Run executes every phase in order and returns the final statistics.
func (s *Simulator) Run(ctx context.Context) (Summary, error) {
	if err := s.config.validate(); err != nil {
		return Summary{}, fmt.Errorf("invalid simulation config: %w", err)
	}
	s.stats.startTime = time.Now()

	phases := []struct {
		name string
		run  func(context.Context) error
	}{
		{"users", s.createUsers},
		{"groups", s.createGroups},
		{"follows", s.simulateFollows},
		{"posts", s.simulatePosts},
		{"comments", s.simulateComments},
	}
	for _, phase := range phases {
		slog.Info("simulator: phase started", "phase", phase.name)
		if err := phase.run(ctx); err != nil {
			return s.stats.snapshot(), fmt.Errorf("phase %s failed: %w", phase.name, err)
		}
	}

	summary := s.stats.snapshot()
	slog.Info("simulator: completed",
		"users", summary.Users,
		"groups", summary.Groups,
		"posts", summary.Posts,
		"follows", summary.Follows,
		"comments", summary.Comments,
		"failures", summary.Failures,
		"duration", summary.Duration,
	)
	return summary, nil
}

// runJobs hands job indexes 0..n-1 to a fixed pool of workers. A failing job is counted and
// logged; only cancellation stops the phase.
func (s *Simulator) runJobs(ctx context.Context, phase string, n int, job func(ctx context.Context, i int) error) error {
	jobs := make(chan int, s.config.Workers)

	var wg sync.WaitGroup
	for w := 0; w < s.config.Workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				if err := job(ctx, i); err != nil {
					s.stats.update(func(sum *Summary) { sum.Failures++ })
					slog.Warn("simulator: job failed", "phase", phase, "worker", workerID, "job", i, "error", err)
				}
			}
		}(w)
	}

enqueue:
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break enqueue
		}
	}
	close(jobs)
	wg.Wait()

	return ctx.Err()
}

func (s *Simulator) createUsers(ctx context.Context) error {
	created := make([]*models.User, s.config.NumUsers)

	err := s.runJobs(ctx, "users", s.config.NumUsers, func(ctx context.Context, i int) error {
		user, err := s.registerUser(ctx, i)
		if err != nil {
			return err
		}
		created[i] = user
		return nil
	})
	if err != nil {
		return err
	}

	for _, user := range created {
		if user != nil {
			s.users = append(s.users, user)
		}
	}
	if len(s.users) < 2 {
		return fmt.Errorf("only %d users could be created", len(s.users))
	}
	s.stats.update(func(sum *Summary) { sum.Users = len(s.users) })
	return nil
}

// registerUser signs up user_<n>, reusing the account when an earlier run already created it.
func (s *Simulator) registerUser(ctx context.Context, n int) (*models.User, error) {
	form := &forms.SignupForm{
		Username:  fmt.Sprintf("user_%d", n),
		FirstName: firstNames[n%len(firstNames)],
		LastName:  lastNames[(n/len(firstNames))%len(lastNames)],
		Password:  Password,
		Password2: Password,
	}
	user, errs, err := s.engine.SignUp(ctx, form)
	if err != nil {
		return nil, err
	}
	if !errs.Valid() {
		existing, err := s.engine.UserByUsername(ctx, form.Username)
		if err != nil {
			return nil, fmt.Errorf("sign up %s: %s", form.Username, errs.Get("username"))
		}
		return existing, nil
	}
	return user, nil
}

func (s *Simulator) createGroups(ctx context.Context) error {
	existing, err := s.engine.Groups(ctx)
	if err != nil {
		return err
	}
	bySlug := make(map[string]*models.Group, len(existing))
	for _, group := range existing {
		bySlug[group.Slug] = group
	}

	for i := 0; i < s.config.NumGroups; i++ {
		theme := themes[i%len(themes)]
		slug := fmt.Sprintf("%s-%d", theme, i)
		if group, ok := bySlug[slug]; ok {
			s.groups = append(s.groups, group)
			continue
		}

		group, errs, err := s.engine.CreateGroup(ctx, &forms.GroupForm{
			Title:       fmt.Sprintf("%s #%d", titleCase(theme), i),
			Slug:        slug,
			Description: fmt.Sprintf("A group for %s enthusiasts", theme),
		})
		if err != nil {
			return err
		}
		if !errs.Valid() {
			s.stats.update(func(sum *Summary) { sum.Failures++ })
			slog.Warn("simulator: group rejected", "slug", slug, "error", errs.Get("slug"))
			continue
		}
		s.groups = append(s.groups, group)
	}

	s.stats.update(func(sum *Summary) { sum.Groups = len(s.groups) })
	return nil
}

// newAuthorPicker returns a generator of user indexes skewed towards the front of the list.
func (s *Simulator) newAuthorPicker() func() int {
	zipf := rand.NewZipf(s.rng, s.config.ZipfS, 1, uint64(len(s.users)-1))
	return func() int { return int(zipf.Uint64()) }
}
