package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/f-sync/followqueue/internal/profiles"
)

const (
	listNameFollowers            = "followers"
	listNameFollowing            = "following"
	errMessageMissingFollowers   = "followers list is required"
	errMessageMissingFollowing   = "following list is required"
	errMessageEmptyFollowers     = "followers file appears empty or invalid"
	errMessageEmptyFollowing     = "following file appears empty or invalid"
	errMessageLoadListNameFormat = "load %s"
)

var (
	// ErrMissingFollowers indicates that no followers source was supplied.
	ErrMissingFollowers = errors.New(errMessageMissingFollowers)
	// ErrMissingFollowing indicates that no following source was supplied.
	ErrMissingFollowing = errors.New(errMessageMissingFollowing)
	// ErrEmptyFollowers indicates that the followers source produced no profiles.
	ErrEmptyFollowers = errors.New(errMessageEmptyFollowers)
	// ErrEmptyFollowing indicates that the following source produced no profiles.
	ErrEmptyFollowing = errors.New(errMessageEmptyFollowing)
)

// IsMissingInput reports whether err signals an absent source list.
func IsMissingInput(err error) bool {
	return errors.Is(err, ErrMissingFollowers) || errors.Is(err, ErrMissingFollowing)
}

// IsEmptyResult reports whether err signals a source list without usable profiles.
func IsEmptyResult(err error) bool {
	return errors.Is(err, ErrEmptyFollowers) || errors.Is(err, ErrEmptyFollowing)
}

// Sources holds the raw content of the two exported lists.
type Sources struct {
	Followers io.Reader
	Following io.Reader
}

// Pair holds the parsed profiles of both lists.
type Pair struct {
	Followers []profiles.BaseProfile
	Following []profiles.BaseProfile
}

// Loader reads and parses both lists.
type Loader struct {
	parser Parser
}

// NewLoader constructs a Loader for the provided network.
func NewLoader(network profiles.Network) Loader {
	return Loader{parser: NewParser(network)}
}

// LoadPair reads, decodes and parses both sources concurrently. Both lists are required
// and each must yield at least one profile.
func (loader Loader) LoadPair(ctx context.Context, sources Sources) (Pair, error) {
	if sources.Followers == nil {
		return Pair{}, ErrMissingFollowers
	}
	if sources.Following == nil {
		return Pair{}, ErrMissingFollowing
	}

	var pair Pair
	group, groupContext := errgroup.WithContext(ctx)
	group.Go(func() error {
		parsed, err := loader.loadList(groupContext, listNameFollowers, sources.Followers)
		pair.Followers = parsed
		return err
	})
	group.Go(func() error {
		parsed, err := loader.loadList(groupContext, listNameFollowing, sources.Following)
		pair.Following = parsed
		return err
	})
	if err := group.Wait(); err != nil {
		return Pair{}, err
	}

	if len(pair.Followers) == 0 {
		return Pair{}, ErrEmptyFollowers
	}
	if len(pair.Following) == 0 {
		return Pair{}, ErrEmptyFollowing
	}
	return pair, nil
}

func (loader Loader) loadList(ctx context.Context, listName string, reader io.Reader) ([]profiles.BaseProfile, error) {
	content, err := ReadText(reader)
	if err != nil {
		return nil, fmt.Errorf(errMessageLoadListNameFormat+": %w", listName, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return loader.parser.ParseProfiles(content), nil
}
