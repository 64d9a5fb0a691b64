package github

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/versoci/verso/internal/git"
)

// branchesQuery fetches every ref under refs/heads/ along with its tip
// commit, paginated by cursor.
const branchesQuery = `
query($owner: String!, $name: String!, $cursor: String) {
  repository(owner: $owner, name: $name) {
    refs(refPrefix: "refs/heads/", first: 100, after: $cursor) {
      nodes {
        name
        target {
          ... on Commit {
            oid
            message
            committedDate
            parents(first: 10) {
              nodes { oid }
            }
          }
        }
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}
`

// tagsQuery fetches every ref under refs/tags/, peeling one level through
// an annotated tag object to the commit it wraps.
const tagsQuery = `
query($owner: String!, $name: String!, $cursor: String) {
  repository(owner: $owner, name: $name) {
    refs(refPrefix: "refs/tags/", first: 100, after: $cursor) {
      nodes {
        name
        target {
          __typename
          oid
          ... on Tag {
            target {
              __typename
              oid
              ... on Commit {
                oid
                message
                committedDate
                parents(first: 10) {
                  nodes { oid }
                }
              }
            }
          }
          ... on Commit {
            oid
            message
            committedDate
            parents(first: 10) {
              nodes { oid }
            }
          }
        }
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}
`

type graphQLEnvelope struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLReply struct {
	Data   json.RawMessage  `json:"data"`
	Errors []graphQLProblem `json:"errors"`
}

type graphQLProblem struct {
	Message string `json:"message"`
}

type refsPage struct {
	Repository struct {
		Refs struct {
			Nodes    []refNode `json:"nodes"`
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"refs"`
	} `json:"repository"`
}

type refNode struct {
	Name   string    `json:"name"`
	Target refTarget `json:"target"`
}

// refTarget is what a ref resolves to: either a commit directly, or (for
// annotated tags) a tag object wrapping one more level of Target.
type refTarget struct {
	TypeName      string     `json:"__typename"`
	OID           string     `json:"oid"`
	Message       string     `json:"message"`
	CommittedDate string     `json:"committedDate"`
	Parents       parentList `json:"parents"`
	Target        *refTarget `json:"target"`
}

type parentList struct {
	Nodes []struct {
		OID string `json:"oid"`
	} `json:"nodes"`
}

// runGraphQLQuery posts query/variables to the repository's GraphQL
// endpoint over the same HTTP transport the REST client uses, so
// authentication (token or GitHub App installation) carries over
// unchanged.
func (r *GitHubRepository) runGraphQLQuery(query string, variables map[string]interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(graphQLEnvelope{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshaling GraphQL request: %w", err)
	}

	endpoint := "https://api.github.com/graphql"
	if r.baseURL != "" {
		endpoint = graphQLEndpointFor(r.baseURL)
	}

	req, err := http.NewRequestWithContext(r.ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating GraphQL request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Client().Do(req)
	if err != nil {
		return nil, describeFailure(r.ctx, "executing GraphQL request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, describeFailure(r.ctx, "reading GraphQL response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GraphQL request failed with status %d: %s", git.ErrRepository, resp.StatusCode, string(raw))
	}

	var reply graphQLReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("parsing GraphQL response: %w", err)
	}
	if len(reply.Errors) > 0 {
		return nil, fmt.Errorf("GraphQL error: %s", reply.Errors[0].Message)
	}
	return reply.Data, nil
}

func (r *GitHubRepository) fetchAllBranchesGraphQL() ([]git.Branch, error) {
	var branches []git.Branch
	err := r.paginateRefs(branchesQuery, func(node refNode) {
		if node.Target.OID == "" {
			return // unborn branch, no commits yet
		}
		commit := commitFromRefTarget(node.Target)
		r.cache.putCommit(commit)
		branches = append(branches, git.Branch{
			Name: git.NewBranchReferenceName(node.Name),
			Tip:  &commit,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("fetching branches via GraphQL: %w", err)
	}
	return branches, nil
}

func (r *GitHubRepository) fetchAllTagsGraphQL() ([]git.Tag, error) {
	var tags []git.Tag
	err := r.paginateRefs(tagsQuery, func(node refNode) {
		tagSha := node.Target.OID
		commitSha := resolveTagTarget(node.Target, r.cache)
		if commitSha != "" {
			r.cache.putTagPeel(tagSha, commitSha)
		}
		tags = append(tags, git.Tag{
			Name:      git.NewReferenceName("refs/tags/" + node.Name),
			TargetSha: tagSha,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("fetching tags via GraphQL: %w", err)
	}
	return tags, nil
}

// resolveTagTarget returns the commit SHA a tag ref ultimately points at,
// caching any commit it resolves along the way: target.OID directly for a
// lightweight tag, one level through Target for an annotated tag object.
func resolveTagTarget(target refTarget, cache *apiCache) string {
	switch target.TypeName {
	case "Commit":
		cache.putCommit(commitFromRefTarget(target))
		return target.OID
	case "Tag":
		if target.Target != nil && target.Target.OID != "" {
			cache.putCommit(commitFromRefTarget(*target.Target))
			return target.Target.OID
		}
	}
	return ""
}

// paginateRefs drives query across every page of refs, invoking visit once
// per node.
func (r *GitHubRepository) paginateRefs(query string, visit func(refNode)) error {
	var cursor *string
	for {
		vars := map[string]interface{}{"owner": r.owner, "name": r.repo}
		if cursor != nil {
			vars["cursor"] = *cursor
		}

		data, err := r.runGraphQLQuery(query, vars)
		if err != nil {
			return err
		}

		var page refsPage
		if err := json.Unmarshal(data, &page); err != nil {
			return fmt.Errorf("parsing refs response: %w", err)
		}
		for _, node := range page.Repository.Refs.Nodes {
			visit(node)
		}

		if !page.Repository.Refs.PageInfo.HasNextPage {
			return nil
		}
		cursor = &page.Repository.Refs.PageInfo.EndCursor
	}
}

// graphQLEndpointFor derives a GitHub Enterprise GraphQL endpoint from its
// REST API base URL. The REST base is conventionally
// "https://ghe.example.com/api/v3"; GraphQL lives at
// "https://ghe.example.com/api/graphql", not under /api/v3.
func graphQLEndpointFor(restBaseURL string) string {
	if strings.HasSuffix(restBaseURL, "/api/v3") {
		return restBaseURL[:len(restBaseURL)-len("/api/v3")] + "/api/graphql"
	}
	if strings.HasSuffix(restBaseURL, "/api/v3/") {
		return restBaseURL[:len(restBaseURL)-len("/api/v3/")] + "/api/graphql"
	}
	return strings.TrimRight(restBaseURL, "/") + "/graphql"
}

// commitFromRefTarget converts a GraphQL ref target to a git.Commit.
func commitFromRefTarget(target refTarget) git.Commit {
	parents := make([]string, 0, len(target.Parents.Nodes))
	for _, p := range target.Parents.Nodes {
		parents = append(parents, p.OID)
	}

	var when time.Time
	if target.CommittedDate != "" {
		when, _ = time.Parse(time.RFC3339, target.CommittedDate)
	}

	return git.Commit{
		Sha:     target.OID,
		Parents: parents,
		When:    when,
		Message: target.Message,
	}
}
