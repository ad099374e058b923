package ingest

import (
	"context"
	"slices"

	"gorm.io/gorm"

	"github.com/tphakala/zclstore/internal/datastore"
	"github.com/tphakala/zclstore/internal/logger"
	"github.com/tphakala/zclstore/internal/zcl"
)

// Resolution summarizes the cross references set for one package.
type Resolution struct {
	Linked                       int `json:"linked"`
	UnmatchedRequests            int `json:"unmatchedRequests"`
	DeviceTypeClustersLinked     int `json:"deviceTypeClustersLinked"`
	DeviceTypeClustersUnresolved int `json:"deviceTypeClustersUnresolved"`
}

// Resolver links request commands to their responses and device type
// cluster entries to cluster rows. A miss leaves the reference NULL and is
// counted, never reported as an error.
type Resolver struct {
	log logger.Logger
}

// NewResolver creates a Resolver.
func NewResolver(log logger.Logger) *Resolver {
	if log == nil {
		log = logger.Discard()
	}
	return &Resolver{log: log}
}

type commandRow struct {
	ID               uint
	ClusterRef       uint
	ManufacturerCode *int64
	Name             string
	ResponseName     string
}

// Resolve sets response_ref on commands and cluster_ref on device type
// clusters of packageID. It only reads rows of packageID, so matching never
// crosses packages.
func (r *Resolver) Resolve(ctx context.Context, tx *gorm.DB, packageID uint) (Resolution, error) {
	var res Resolution

	if err := r.linkResponses(ctx, tx, packageID, &res); err != nil {
		return Resolution{}, err
	}
	if err := r.linkDeviceTypeClusters(ctx, tx, packageID, &res); err != nil {
		return Resolution{}, err
	}

	log := r.log.WithContext(ctx)
	if res.UnmatchedRequests > 0 {
		log.Debug("requests without a response",
			logger.Uint64("package_id", uint64(packageID)),
			logger.Int("unmatched", res.UnmatchedRequests))
	}
	log.Debug("cross references resolved",
		logger.Uint64("package_id", uint64(packageID)),
		logger.Int("linked", res.Linked),
		logger.Int("device_type_clusters_linked", res.DeviceTypeClustersLinked))
	return res, nil
}

func (r *Resolver) linkResponses(ctx context.Context, tx *gorm.DB, packageID uint, res *Resolution) error {
	var commands []commandRow
	err := tx.WithContext(ctx).Table("commands").
		Select("id, cluster_ref, manufacturer_code, name, response_name").
		Where("package_ref = ?", packageID).
		Order("id ASC").
		Scan(&commands).Error
	if err != nil {
		return datastore.ClassifyError("resolve_commands", err)
	}

	// cluster -> name -> commands in id order
	byCluster := make(map[uint]map[string][]*commandRow)
	for i := range commands {
		c := &commands[i]
		names := byCluster[c.ClusterRef]
		if names == nil {
			names = make(map[string][]*commandRow)
			byCluster[c.ClusterRef] = names
		}
		names[c.Name] = append(names[c.Name], c)
	}

	// response id -> request ids, applied in one UPDATE per response
	links := make(map[uint][]uint)
	for i := range commands {
		c := &commands[i]
		candidates := zcl.ResponseCandidates(c.Name, c.ResponseName)
		if candidates == nil {
			continue
		}

		var match *commandRow
		for _, name := range candidates {
			if match = pickResponse(byCluster[c.ClusterRef][name], c); match != nil {
				break
			}
		}
		switch {
		case match != nil:
			links[match.ID] = append(links[match.ID], c.ID)
			res.Linked++
		case zcl.IsRequestName(c.Name):
			res.UnmatchedRequests++
		}
	}

	responseIDs := make([]uint, 0, len(links))
	for id := range links {
		responseIDs = append(responseIDs, id)
	}
	slices.Sort(responseIDs)

	for _, responseID := range responseIDs {
		err := tx.WithContext(ctx).Table("commands").
			Where("id IN ?", links[responseID]).
			Update("response_ref", responseID).Error
		if err != nil {
			return datastore.ClassifyError("resolve_commands", err)
		}
	}
	return nil
}

// pickResponse prefers the candidate with the request's manufacturer code,
// falling back to the lowest id. A command never answers itself.
func pickResponse(candidates []*commandRow, request *commandRow) *commandRow {
	var fallback *commandRow
	for _, c := range candidates {
		if c.ID == request.ID {
			continue
		}
		if sameManufacturer(c.ManufacturerCode, request.ManufacturerCode) {
			return c
		}
		if fallback == nil {
			fallback = c
		}
	}
	return fallback
}

func sameManufacturer(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type clusterCodeRow struct {
	ID   uint
	Code int64
}

type deviceTypeClusterRow struct {
	ID          uint
	ClusterCode int64
}

// linkDeviceTypeClusters points each device type cluster entry at the
// standard cluster with its code, or the lowest id variant when the package
// only has manufacturer specific ones.
func (r *Resolver) linkDeviceTypeClusters(ctx context.Context, tx *gorm.DB, packageID uint, res *Resolution) error {
	var entries []deviceTypeClusterRow
	err := tx.WithContext(ctx).Table("device_type_clusters").
		Select("id, cluster_code").
		Where("package_ref = ?", packageID).
		Order("id ASC").
		Scan(&entries).Error
	if err != nil {
		return datastore.ClassifyError("resolve_device_types", err)
	}
	if len(entries) == 0 {
		return nil
	}

	var clusters []clusterCodeRow
	err = tx.WithContext(ctx).Table("clusters").
		Select("id, code").
		Where("package_ref = ?", packageID).
		Order("manufacturer_code ASC, id ASC").
		Scan(&clusters).Error
	if err != nil {
		return datastore.ClassifyError("resolve_device_types", err)
	}

	byCode := make(map[int64]uint, len(clusters))
	for _, c := range clusters {
		if _, seen := byCode[c.Code]; !seen {
			byCode[c.Code] = c.ID
		}
	}

	links := make(map[uint][]uint)
	for _, e := range entries {
		clusterID, ok := byCode[e.ClusterCode]
		if !ok {
			res.DeviceTypeClustersUnresolved++
			continue
		}
		links[clusterID] = append(links[clusterID], e.ID)
		res.DeviceTypeClustersLinked++
	}

	clusterIDs := make([]uint, 0, len(links))
	for id := range links {
		clusterIDs = append(clusterIDs, id)
	}
	slices.Sort(clusterIDs)

	for _, clusterID := range clusterIDs {
		err := tx.WithContext(ctx).Table("device_type_clusters").
			Where("id IN ?", links[clusterID]).
			Update("cluster_ref", clusterID).Error
		if err != nil {
			return datastore.ClassifyError("resolve_device_types", err)
		}
	}
	return nil
}
