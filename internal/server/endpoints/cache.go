package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfx/internal/api"
	"github.com/jackzampolin/pdfx/internal/cache"
	"github.com/jackzampolin/pdfx/internal/svcctx"
)

// CacheClearResponse reports how many entries were dropped.
type CacheClearResponse struct {
	Cleared int `json:"cleared"`
}

// CacheStatsEndpoint handles GET /api/cache.
type CacheStatsEndpoint struct{}

func (e *CacheStatsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/cache", e.handler
}

func (e *CacheStatsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Cache statistics
//	@Tags		cache
//	@Produce	json
//	@Success	200	{object}	cache.Stats
//	@Router		/api/cache [get]
func (e *CacheStatsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	c := svcctx.CacheFrom(r.Context())
	if c == nil {
		writeError(w, http.StatusServiceUnavailable, "cache not initialized")
		return
	}
	writeJSON(w, http.StatusOK, c.Stats())
}

func (e *CacheStatsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp cache.Stats
			if err := client.Get(cmd.Context(), "/api/cache", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// CacheClearEndpoint handles DELETE /api/cache.
type CacheClearEndpoint struct{}

func (e *CacheClearEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/cache", e.handler
}

func (e *CacheClearEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Clear the cache
//	@Description	Drops every cached result. Hit and miss counters are kept.
//	@Tags		cache
//	@Produce	json
//	@Success	200	{object}	CacheClearResponse
//	@Router		/api/cache [delete]
func (e *CacheClearEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	c := svcctx.CacheFrom(r.Context())
	if c == nil {
		writeError(w, http.StatusServiceUnavailable, "cache not initialized")
		return
	}
	n := c.Size()
	c.Clear()
	svcctx.LoggerFrom(r.Context()).Info("cache cleared", "entries", n)
	writeJSON(w, http.StatusOK, CacheClearResponse{Cleared: n})
}

func (e *CacheClearEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the server's result cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp CacheClearResponse
			if err := client.Delete(cmd.Context(), "/api/cache", &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries\n", resp.Cleared)
			return nil
		},
	}
}
