package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/zclstore/internal/datastore/entities"
	"github.com/tphakala/zclstore/internal/datastore/repository"
	"github.com/tphakala/zclstore/internal/errors"
	"github.com/tphakala/zclstore/internal/zcl"
)

// initPackageRoutes registers the package registry routes.
func (s *Server) initPackageRoutes(g *echo.Group) {
	g.GET("/packages", s.ListPackages)
	g.GET("/packages/:id", s.GetPackage)
	g.GET("/packages/:id/stats", s.GetPackageStats)
	g.GET("/packages/:id/response-stats", s.GetResponseStats)
}

// PackageStatsResponse is the body of /packages/:id/stats.
type PackageStatsResponse struct {
	Package *entities.Package       `json:"package"`
	Tables  []repository.TableCount `json:"tables"`
	Total   int64                   `json:"total"`
}

// ListPackages lists every package, or those of one category with ?category=.
func (s *Server) ListPackages(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		pkgs []*entities.Package
		err  error
	)
	if category := c.QueryParam("category"); category != "" {
		if !zcl.IsKnownCategory(category) {
			return s.HandleError(c, errors.Newf("unknown package category %q", category).
				Component("api").
				Category(errors.CategoryValidation).
				Build(), "Invalid category", http.StatusBadRequest)
		}
		pkgs, err = s.packages.GetByCategory(ctx, category)
	} else {
		pkgs, err = s.packages.GetAll(ctx)
	}
	if err != nil {
		return s.HandleError(c, err, "Failed to list packages", statusFor(err))
	}

	return c.JSON(http.StatusOK, nonNil(pkgs))
}

// GetPackage returns one package registry row.
func (s *Server) GetPackage(c echo.Context) error {
	pkg, err := s.lookupPackage(c)
	if err != nil {
		return s.HandleError(c, err, "Package not available", statusFor(err))
	}
	return c.JSON(http.StatusOK, pkg)
}

// GetPackageStats returns per-table row counts of a package.
func (s *Server) GetPackageStats(c echo.Context) error {
	pkg, err := s.lookupPackage(c)
	if err != nil {
		return s.HandleError(c, err, "Package not available", statusFor(err))
	}

	counts, err := s.queries.Stats(c.Request().Context(), pkg.ID)
	if err != nil {
		return s.HandleError(c, err, "Failed to count package rows", statusFor(err))
	}

	var total int64
	for _, tc := range counts {
		total += tc.Rows
	}
	return c.JSON(http.StatusOK, PackageStatsResponse{Package: pkg, Tables: counts, Total: total})
}

// GetResponseStats returns request/response linking counters of a package.
func (s *Server) GetResponseStats(c echo.Context) error {
	pkg, err := s.lookupPackage(c)
	if err != nil {
		return s.HandleError(c, err, "Package not available", statusFor(err))
	}

	stats, err := s.queries.ResponseStats(c.Request().Context(), pkg.ID)
	if err != nil {
		return s.HandleError(c, err, "Failed to compute response stats", statusFor(err))
	}
	return c.JSON(http.StatusOK, stats)
}

// lookupPackage resolves the :id path parameter to a registered package.
func (s *Server) lookupPackage(c echo.Context) (*entities.Package, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	return s.packages.GetByID(c.Request().Context(), id)
}

// parseID reads a positive row id from the named path parameter.
func parseID(c echo.Context, param string) (uint, error) {
	raw := c.Param(param)
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, errors.Newf("invalid %s %q", param, raw).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return uint(id), nil
}
