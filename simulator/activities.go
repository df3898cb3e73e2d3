package simulator

import (
	"context"
	"strings"

	"yatube/internal/engine"
	"yatube/internal/forms"
	"yatube/internal/models"
)

var (
	themes = []string{
		"gaming", "tech", "science", "music", "movies",
		"books", "sports", "food", "travel", "art",
		"photography", "fitness", "programming", "history", "nature",
	}
	firstNames = []string{"Anna", "Boris", "Clara", "Dmitri", "Elena", "Fedor", "Galina", "Igor"}
	lastNames  = []string{"Ivanova", "Petrov", "Smirnova", "Kuznetsov", "Popova", "Sokolov"}
	words      = strings.Fields(`today walked river morning coffee finally finished reading book about
		mountains cats garden city rain train weekend friends dinner recipe bread photo sunset concert
		project code bug release travel notes quiet evening winter summer market bicycle library`)
)

type followPlan struct {
	user, author *models.User
}

func (s *Simulator) simulateFollows(ctx context.Context) error {
	pick := s.newAuthorPicker()

	var plan []followPlan
	for _, user := range s.users {
		for i := 0; i < s.config.FollowsPerUser; i++ {
			plan = append(plan, followPlan{user: user, author: s.users[pick()]})
		}
	}

	return s.runJobs(ctx, "follows", len(plan), func(ctx context.Context, i int) error {
		outcome, err := s.engine.Follow(ctx, plan[i].user.ID, plan[i].author.ID)
		if err != nil {
			return err
		}
		s.stats.update(func(sum *Summary) {
			switch outcome {
			case engine.FollowCreated:
				sum.Follows++
			case engine.FollowExists:
				sum.DuplicateFollows++
			case engine.FollowForbidden:
				sum.SelfFollows++
			}
		})
		return nil
	})
}

type postPlan struct {
	author *models.User
	form   forms.PostForm
}

func (s *Simulator) simulatePosts(ctx context.Context) error {
	pick := s.newAuthorPicker()

	plan := make([]postPlan, len(s.users)*s.config.PostsPerUser)
	for i := range plan {
		plan[i] = postPlan{
			author: s.users[pick()],
			form:   forms.PostForm{Text: s.sentence(8, 24)},
		}
		if len(s.groups) > 0 && s.rng.Intn(2) == 0 {
			plan[i].form.Group = s.groups[s.rng.Intn(len(s.groups))].Slug
		}
	}

	created := make([]*models.Post, len(plan))
	err := s.runJobs(ctx, "posts", len(plan), func(ctx context.Context, i int) error {
		post, errs, err := s.engine.CreatePost(ctx, plan[i].author, &plan[i].form)
		if err != nil {
			return err
		}
		if !errs.Valid() {
			s.stats.update(func(sum *Summary) { sum.Failures++ })
			return nil
		}
		created[i] = post
		s.stats.update(func(sum *Summary) { sum.Posts++ })
		return nil
	})

	for _, post := range created {
		if post != nil {
			s.posts = append(s.posts, post)
		}
	}
	return err
}

type commentPlan struct {
	post   *models.Post
	author *models.User
	form   forms.CommentForm
}

func (s *Simulator) simulateComments(ctx context.Context) error {
	var plan []commentPlan
	for _, post := range s.posts {
		n := s.rng.Intn(2*s.config.CommentsPerPost + 1)
		for i := 0; i < n; i++ {
			plan = append(plan, commentPlan{
				post:   post,
				author: s.users[s.rng.Intn(len(s.users))],
				form:   forms.CommentForm{Text: s.sentence(3, 12)},
			})
		}
	}

	return s.runJobs(ctx, "comments", len(plan), func(ctx context.Context, i int) error {
		_, errs, err := s.engine.AddComment(ctx, plan[i].post, plan[i].author, &plan[i].form)
		if err != nil {
			return err
		}
		if !errs.Valid() {
			s.stats.update(func(sum *Summary) { sum.Failures++ })
			return nil
		}
		s.stats.update(func(sum *Summary) { sum.Comments++ })
		return nil
	})
}

// sentence draws between lo and hi random words. Only called from the planning goroutine.
func (s *Simulator) sentence(lo, hi int) string {
	n := lo + s.rng.Intn(hi-lo+1)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = words[s.rng.Intn(len(words))]
	}
	return titleCase(strings.Join(parts, " ")) + "."
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
