package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"artcurator/internal/domain"
	"artcurator/internal/ports"
)

// CounterResolver derives the next value of the running counter embedded in
// published post text.
type CounterResolver struct {
	wall    ports.Wall
	pattern *regexp.Regexp
}

// NewCounterResolver compiles the counter pattern; the first capture group
// must match the embedded integer.
func NewCounterResolver(wall ports.Wall, pattern string) (*CounterResolver, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile counter pattern: %w", err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("counter pattern %q has no capture group", pattern)
	}
	return &CounterResolver{wall: wall, pattern: re}, nil
}

// Next fetches the most recent lookback posts and returns the value after the
// first matching counter. ok is false when no post in the window matches;
// that is the first-run condition, not an error, and it is distinct from a
// resolved value of zero.
func (c *CounterResolver) Next(ctx context.Context, lookback int) (int, bool, error) {
	posts, err := c.wall.RecentPosts(ctx, lookback)
	if err != nil {
		return 0, false, fmt.Errorf("load recent posts: %w", err)
	}
	value, ok := c.Resolve(posts)
	if !ok {
		return 0, false, nil
	}
	return value + 1, true, nil
}

// Resolve scans posts in the given order (newest first) and returns the
// counter value of the first match.
func (c *CounterResolver) Resolve(posts []domain.WallPost) (int, bool) {
	for _, post := range posts {
		match := c.pattern.FindStringSubmatch(post.Text)
		if match == nil {
			continue
		}
		value, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		return value, true
	}
	return 0, false
}
