package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/http/response"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	defaultTopK     = 5
	maxTopK         = 50
)

var errNoStatus = errors.New("no analysis status for repository")

func errRepoMissing(id string) error {
	return fmt.Errorf("repository %s not found", id)
}

func errCommitMissing(id codebase.CommitID) error {
	return fmt.Errorf("commit %s not found", id)
}

func paging(c *gin.Context) (limit, offset int) {
	limit = intQuery(c, "limit", defaultPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset = intQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func topK(c *gin.Context) int {
	k := intQuery(c, "top_k", defaultTopK)
	if k <= 0 {
		return defaultTopK
	}
	if k > maxTopK {
		return maxTopK
	}
	return k
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// commitIDParam builds a CommitID from :owner, :name and :sha, answering 400
// itself when they do not form one.
func commitIDParam(c *gin.Context) (codebase.CommitID, bool) {
	id, err := codebase.NewCommitID(codebase.RepoID(c.Param("owner"), c.Param("name")), c.Param("sha"))
	if err != nil {
		response.RespondErr(c, err)
		return codebase.CommitID{}, false
	}
	return id, true
}

func errInvalidRole(role string) error {
	return fmt.Errorf("role %q must be one of user, assistant, system", role)
}
