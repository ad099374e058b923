package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/zclstore/internal/errors"
	"github.com/tphakala/zclstore/internal/zcl"
)

// initEntityRoutes registers the normalized entity routes. Package scoped
// lists 404 when the package does not exist.
func (s *Server) initEntityRoutes(g *echo.Group) {
	pkg := g.Group("/packages/:id")

	pkg.GET("/clusters", s.ListClusters)
	pkg.GET("/commands", packageList(s, "commands", s.queries.Commands))
	pkg.GET("/command-args", packageList(s, "command arguments", s.queries.CommandArguments))
	pkg.GET("/domains", packageList(s, "domains", s.queries.Domains))
	pkg.GET("/attributes", s.ListAttributes)
	pkg.GET("/enums", packageList(s, "enums", s.queries.Enums))
	pkg.GET("/enum-items", packageList(s, "enum items", s.queries.EnumItems))
	pkg.GET("/bitmaps", packageList(s, "bitmaps", s.queries.Bitmaps))
	pkg.GET("/bitmap-fields", packageList(s, "bitmap fields", s.queries.BitmapFields))
	pkg.GET("/structs", packageList(s, "structs", s.queries.StructsWithItemCount))
	pkg.GET("/device-types", packageList(s, "device types", s.queries.DeviceTypes))
	pkg.GET("/device-type-clusters", packageList(s, "device type clusters", s.queries.DeviceTypeClusters))
	pkg.GET("/atomics", packageList(s, "atomics", s.queries.Atomics))
	pkg.GET("/options/:category", s.ListOptionValues)
	pkg.GET("/manufacturer-codes/:table", s.ListManufacturerCodes)
	pkg.GET("/duplicate-names/:table", s.ListDuplicateNames)

	g.GET("/clusters/:clusterId", s.GetCluster)
	g.GET("/clusters/:clusterId/commands", s.ListClusterCommands)
	g.GET("/commands/:commandId", s.GetCommand)
	g.GET("/commands/:commandId/args", s.ListCommandArguments)
	g.GET("/domains/:domainId", s.GetDomain)
}

// packageList builds a handler that lists one entity kind of the :id package.
func packageList[T any](s *Server, what string, fetch func(context.Context, uint) ([]T, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		pkg, err := s.lookupPackage(c)
		if err != nil {
			return s.HandleError(c, err, "Package not available", statusFor(err))
		}

		rows, err := fetch(c.Request().Context(), pkg.ID)
		if err != nil {
			return s.HandleError(c, err, "Failed to list "+what, statusFor(err))
		}
		return c.JSON(http.StatusOK, nonNil(rows))
	}
}

// ListClusters lists clusters of a package. With ?codes=6,0x0008 it returns
// one slot per requested code in request order, null where there is no match.
func (s *Server) ListClusters(c echo.Context) error {
	pkg, err := s.lookupPackage(c)
	if err != nil {
		return s.HandleError(c, err, "Package not available", statusFor(err))
	}
	ctx := c.Request().Context()

	raw := c.QueryParam("codes")
	if raw == "" {
		clusters, err := s.queries.Clusters(ctx, pkg.ID)
		if err != nil {
			return s.HandleError(c, err, "Failed to list clusters", statusFor(err))
		}
		return c.JSON(http.StatusOK, nonNil(clusters))
	}

	codes, err := parseCodes(raw)
	if err != nil {
		return s.HandleError(c, err, "Invalid cluster codes", http.StatusBadRequest)
	}
	clusters, err := s.queries.ClustersByCodes(ctx, pkg.ID, codes)
	if err != nil {
		return s.HandleError(c, err, "Failed to look up clusters", statusFor(err))
	}
	return c.JSON(http.StatusOK, clusters)
}

// ListAttributes lists attributes of a package, optionally of one ?side=.
func (s *Server) ListAttributes(c echo.Context) error {
	pkg, err := s.lookupPackage(c)
	if err != nil {
		return s.HandleError(c, err, "Package not available", statusFor(err))
	}
	ctx := c.Request().Context()

	side := c.QueryParam("side")
	if side == "" {
		attrs, err := s.queries.Attributes(ctx, pkg.ID)
		if err != nil {
			return s.HandleError(c, err, "Failed to list attributes", statusFor(err))
		}
		return c.JSON(http.StatusOK, nonNil(attrs))
	}

	if side != zcl.SideServer && side != zcl.SideClient {
		return s.HandleError(c, errors.Newf("side must be %q or %q", zcl.SideServer, zcl.SideClient).
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Invalid attribute side", http.StatusBadRequest)
	}
	attrs, err := s.queries.AttributesBySide(ctx, pkg.ID, side)
	if err != nil {
		return s.HandleError(c, err, "Failed to list attributes", statusFor(err))
	}
	return c.JSON(http.StatusOK, nonNil(attrs))
}

// ListOptionValues lists the option values of one category.
func (s *Server) ListOptionValues(c echo.Context) error {
	pkg, err := s.lookupPackage(c)
	if err != nil {
		return s.HandleError(c, err, "Package not available", statusFor(err))
	}

	opts, err := s.queries.OptionValues(c.Request().Context(), pkg.ID, c.Param("category"))
	if err != nil {
		return s.HandleError(c, err, "Failed to list option values", statusFor(err))
	}
	return c.JSON(http.StatusOK, nonNil(opts))
}

// ListManufacturerCodes lists distinct manufacturer codes of a table, or the
// manufacturer specific rows themselves with ?rows=true.
func (s *Server) ListManufacturerCodes(c echo.Context) error {
	pkg, err := s.lookupPackage(c)
	if err != nil {
		return s.HandleError(c, err, "Package not available", statusFor(err))
	}
	ctx := c.Request().Context()
	table := c.Param("table")

	if withRows, _ := strconv.ParseBool(c.QueryParam("rows")); withRows {
		rows, err := s.queries.ManufacturerCodeRows(ctx, pkg.ID, table)
		if err != nil {
			return s.HandleError(c, err, "Failed to list manufacturer specific rows", statusFor(err))
		}
		return c.JSON(http.StatusOK, nonNil(rows))
	}

	codes, err := s.queries.ManufacturerCodes(ctx, pkg.ID, table)
	if err != nil {
		return s.HandleError(c, err, "Failed to list manufacturer codes", statusFor(err))
	}
	return c.JSON(http.StatusOK, nonNil(codes))
}

// ListDuplicateNames lists enum, bitmap or struct names declared more than once.
func (s *Server) ListDuplicateNames(c echo.Context) error {
	pkg, err := s.lookupPackage(c)
	if err != nil {
		return s.HandleError(c, err, "Package not available", statusFor(err))
	}

	dups, err := s.queries.DuplicateNames(c.Request().Context(), pkg.ID, c.Param("table"))
	if err != nil {
		return s.HandleError(c, err, "Failed to list duplicate names", statusFor(err))
	}
	return c.JSON(http.StatusOK, nonNil(dups))
}

// GetCluster returns one cluster by row id.
func (s *Server) GetCluster(c echo.Context) error {
	id, err := parseID(c, "clusterId")
	if err != nil {
		return s.HandleError(c, err, "Invalid cluster id", http.StatusBadRequest)
	}
	cluster, err := s.queries.ClusterByID(c.Request().Context(), id)
	if err != nil {
		return s.HandleError(c, err, "Cluster not available", statusFor(err))
	}
	return c.JSON(http.StatusOK, cluster)
}

// ListClusterCommands lists the commands of one cluster.
func (s *Server) ListClusterCommands(c echo.Context) error {
	id, err := parseID(c, "clusterId")
	if err != nil {
		return s.HandleError(c, err, "Invalid cluster id", http.StatusBadRequest)
	}
	ctx := c.Request().Context()
	if _, err := s.queries.ClusterByID(ctx, id); err != nil {
		return s.HandleError(c, err, "Cluster not available", statusFor(err))
	}

	cmds, err := s.queries.CommandsByCluster(ctx, id)
	if err != nil {
		return s.HandleError(c, err, "Failed to list cluster commands", statusFor(err))
	}
	return c.JSON(http.StatusOK, nonNil(cmds))
}

// GetCommand returns one command by row id.
func (s *Server) GetCommand(c echo.Context) error {
	id, err := parseID(c, "commandId")
	if err != nil {
		return s.HandleError(c, err, "Invalid command id", http.StatusBadRequest)
	}
	cmd, err := s.queries.CommandByID(c.Request().Context(), id)
	if err != nil {
		return s.HandleError(c, err, "Command not available", statusFor(err))
	}
	return c.JSON(http.StatusOK, cmd)
}

// ListCommandArguments lists the arguments of one command in declaration order.
func (s *Server) ListCommandArguments(c echo.Context) error {
	id, err := parseID(c, "commandId")
	if err != nil {
		return s.HandleError(c, err, "Invalid command id", http.StatusBadRequest)
	}
	ctx := c.Request().Context()
	if _, err := s.queries.CommandByID(ctx, id); err != nil {
		return s.HandleError(c, err, "Command not available", statusFor(err))
	}

	args, err := s.queries.ArgumentsByCommand(ctx, id)
	if err != nil {
		return s.HandleError(c, err, "Failed to list command arguments", statusFor(err))
	}
	return c.JSON(http.StatusOK, nonNil(args))
}

// GetDomain returns one domain by row id.
func (s *Server) GetDomain(c echo.Context) error {
	id, err := parseID(c, "domainId")
	if err != nil {
		return s.HandleError(c, err, "Invalid domain id", http.StatusBadRequest)
	}
	domain, err := s.queries.DomainByID(c.Request().Context(), id)
	if err != nil {
		return s.HandleError(c, err, "Domain not available", statusFor(err))
	}
	return c.JSON(http.StatusOK, domain)
}

// parseCodes parses a comma separated list of decimal or 0x prefixed codes.
func parseCodes(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	codes := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		code, err := strconv.ParseInt(p, 0, 64)
		if err != nil {
			return nil, errors.New(err).
				Component("api").
				Category(errors.CategoryValidation).
				Context("code", p).
				Build()
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// nonNil keeps empty lists rendering as [] rather than null.
func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
