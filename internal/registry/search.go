package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"sbtup/internal/depmap"
	"sbtup/internal/version"
)

// sbtPluginSuffix is the cross-build suffix of sbt 1.x plugins.
const sbtPluginSuffix = "_2.12_1.0"

// SearchArtifacts returns the artifacts published under org whose name starts
// with prefix, in index order.
func (c *Client) SearchArtifacts(ctx context.Context, org, prefix string) ([]string, error) {
	dirs, err := c.listing(ctx, c.groupURL(org))
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts of %s: %w", org, err)
	}
	var out []string
	for _, d := range dirs {
		if strings.HasPrefix(d, prefix) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Versions returns every version published for org:artifact, in index order.
// The artifact name must include any binary-version suffix.
func (c *Client) Versions(ctx context.Context, org, artifact string) ([]version.Version, error) {
	dirs, err := c.listing(ctx, c.artifactURL(org, artifact))
	if err != nil {
		return nil, fmt.Errorf("failed to list versions of %s:%s: %w", org, artifact, err)
	}
	out := make([]version.Version, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, version.Parse(d))
	}
	return out, nil
}

// Suffixes returns the artifact suffixes to probe, most specific first, for a
// project built with the given Scala version. Nil means unknown.
func Suffixes(scala *version.Version) []string {
	var out []string
	switch {
	case scala == nil || !scala.IsSemVer():
		out = []string{"_2.13", "_3", "_2.12", ""}
	case scala.Major == 3:
		out = []string{"_3", "_2.13", "_2.12", ""}
	case scala.Major == 2 && scala.Minor == 13:
		out = []string{"_2.13", "_2.12", ""}
	case scala.Major == 2 && scala.Minor == 12:
		out = []string{"_2.12", ""}
	default:
		out = []string{"_2.13", "_3", "_2.12", ""}
	}
	return append(out, sbtPluginSuffix)
}

// ResolveArtifact returns the first name artifact+suffix published under org.
func (c *Client) ResolveArtifact(ctx context.Context, org, artifact string, suffixes []string) (string, error) {
	dirs, err := c.listing(ctx, c.groupURL(org))
	if err != nil {
		return "", fmt.Errorf("failed to list artifacts of %s: %w", org, err)
	}
	for _, s := range suffixes {
		if name := artifact + s; slices.Contains(dirs, name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: no published variant of %s:%s", ErrNotFound, org, artifact)
}

// VersionsFor resolves the published artifact for key and lists its versions.
func (c *Client) VersionsFor(ctx context.Context, key depmap.Key, suffixes []string) ([]version.Version, error) {
	name, err := c.ResolveArtifact(ctx, key.Organization, key.Artifact, suffixes)
	if err != nil {
		return nil, err
	}
	return c.Versions(ctx, key.Organization, name)
}

// VersionsForAll looks up every key concurrently. A key whose lookup fails is
// logged and maps to an empty list; only cancellation of ctx is returned as an
// error.
func (c *Client) VersionsForAll(ctx context.Context, keys []depmap.Key, scala *version.Version) (map[depmap.Key][]version.Version, error) {
	suffixes := Suffixes(scala)
	out := make(map[depmap.Key][]version.Version, len(keys))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, key := range keys {
		g.Go(func() error {
			versions, err := c.VersionsFor(gctx, key, suffixes)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if errors.Is(err, ErrNotFound) {
					c.logger.Info("dependency not found in registry", "dependency", key.String())
				} else {
					c.logger.Warn("version lookup failed", "dependency", key.String(), "error", err)
				}
				versions = nil
			}
			mu.Lock()
			out[key] = versions
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
