// Package pins maps net-level pin references to physical pin world
// coordinates, choosing dynamic group allocations to minimize trace
// length. A net reference is either a direct "instance:pin" pair or
// a dynamic "instance:group" pair resolved against a per-instance
// pool of remaining physical pins.
package pins

import (
	"math"
	"strings"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/geom"
	"github.com/dshills/boardlayout/pkg/placer"
)

// PinPool tracks the remaining unallocated physical pins in every
// allocatable pin group of one component instance.
type PinPool struct {
	InstanceID string
	Pools      map[string][]string // group_id -> remaining physical pin IDs
}

// Clone deep-copies a pool so each outer rip-up attempt can allocate
// independently without disturbing earlier attempts.
func (p *PinPool) Clone() *PinPool {
	clone := &PinPool{InstanceID: p.InstanceID, Pools: make(map[string][]string, len(p.Pools))}
	for gid, pinIDs := range p.Pools {
		cp := make([]string, len(pinIDs))
		copy(cp, pinIDs)
		clone.Pools[gid] = cp
	}
	return clone
}

// BuildPinPools constructs a pool for every placed instance whose
// catalog entry has at least one allocatable pin group.
func BuildPinPools(fp *placer.FullPlacement, cat *catalog.CatalogResult) map[string]*PinPool {
	catalogMap := cat.Map()
	pools := make(map[string]*PinPool)

	for _, pc := range fp.Components {
		c, ok := catalogMap[pc.CatalogID]
		if !ok || len(c.PinGroups) == 0 {
			continue
		}
		instPools := make(map[string][]string)
		for _, pg := range c.PinGroups {
			if pg.Allocatable {
				pinIDs := make([]string, len(pg.PinIDs))
				copy(pinIDs, pg.PinIDs)
				instPools[pg.ID] = pinIDs
			}
		}
		if len(instPools) > 0 {
			pools[pc.InstanceID] = &PinPool{InstanceID: pc.InstanceID, Pools: instPools}
		}
	}
	return pools
}

// ClonePools deep-copies an entire pool map, used to seed a fresh
// routing attempt.
func ClonePools(pools map[string]*PinPool) map[string]*PinPool {
	clone := make(map[string]*PinPool, len(pools))
	for iid, p := range pools {
		clone[iid] = p.Clone()
	}
	return clone
}

// SplitRef parses an "instance_id:pin_or_group" reference.
func SplitRef(ref string) (instanceID, pinOrGroup string, ok bool) {
	idx := strings.IndexByte(ref, ':')
	if idx < 0 {
		return "", "", false
	}
	return ref[:idx], ref[idx+1:], true
}

func placedByInstance(fp *placer.FullPlacement, instanceID string) (*placer.PlacedComponent, bool) {
	for i := range fp.Components {
		if fp.Components[i].InstanceID == instanceID {
			return &fp.Components[i], true
		}
	}
	return nil, false
}

// ResolvePinRef classifies a raw net pin reference: a direct pin ID
// takes priority over a group ID of the same name, matching a
// component's catalog entry.
func ResolvePinRef(ref string, fp *placer.FullPlacement, cat *catalog.CatalogResult) (instanceID, pinOrGroup string, isGroup bool) {
	iid, pid, ok := SplitRef(ref)
	if !ok {
		return "", "", false
	}
	catalogMap := cat.Map()

	pc, ok := placedByInstance(fp, iid)
	if !ok {
		return iid, pid, false
	}
	c, ok := catalogMap[pc.CatalogID]
	if !ok {
		return iid, pid, false
	}
	if _, isPin := c.PinByID(pid); isPin {
		return iid, pid, false
	}
	if _, isGrp := c.PinGroupByID(pid); isGrp {
		return iid, pid, true
	}
	return iid, pid, false
}

// GetPinWorldPos returns the world coordinates of a specific physical
// pin on a placed instance.
func GetPinWorldPos(instanceID, pinID string, fp *placer.FullPlacement, cat *catalog.CatalogResult) (geom.Point, bool) {
	catalogMap := cat.Map()
	pc, ok := placedByInstance(fp, instanceID)
	if !ok {
		return geom.Point{}, false
	}
	c, ok := catalogMap[pc.CatalogID]
	if !ok {
		return geom.Point{}, false
	}
	pin, ok := c.PinByID(pinID)
	if !ok {
		return geom.Point{}, false
	}
	return geom.PinWorldXY(pin.PositionMM, pc.XMM, pc.YMM, pc.RotationDeg), true
}

// GroupPin is one physical pin of a pin group resolved to world
// coordinates.
type GroupPin struct {
	PinID string
	Pos   geom.Point
}

// GetGroupPinPositions returns the world coordinates of every member
// pin of a pin group.
func GetGroupPinPositions(instanceID, groupID string, fp *placer.FullPlacement, cat *catalog.CatalogResult) []GroupPin {
	catalogMap := cat.Map()
	pc, ok := placedByInstance(fp, instanceID)
	if !ok {
		return nil
	}
	c, ok := catalogMap[pc.CatalogID]
	if !ok || len(c.PinGroups) == 0 {
		return nil
	}
	group, ok := c.PinGroupByID(groupID)
	if !ok {
		return nil
	}

	var result []GroupPin
	for _, pid := range group.PinIDs {
		if pin, ok := c.PinByID(pid); ok {
			result = append(result, GroupPin{
				PinID: pid,
				Pos:   geom.PinWorldXY(pin.PositionMM, pc.XMM, pc.YMM, pc.RotationDeg),
			})
		}
	}
	return result
}

// AllocateBestPin picks the physical pin still in the group's pool
// whose world position minimizes Euclidean distance to target,
// removing it from the pool. Returns ok=false if the pool is empty.
func AllocateBestPin(instanceID, groupID string, target geom.Point, pool *PinPool, fp *placer.FullPlacement, cat *catalog.CatalogResult) (string, bool) {
	available := pool.Pools[groupID]
	if len(available) == 0 {
		return "", false
	}

	catalogMap := cat.Map()
	pc, ok := placedByInstance(fp, instanceID)
	if !ok {
		return "", false
	}
	c, ok := catalogMap[pc.CatalogID]
	if !ok {
		return "", false
	}

	bestPin := ""
	bestDist := math.Inf(1)
	bestIdx := -1
	for i, pid := range available {
		pin, ok := c.PinByID(pid)
		if !ok {
			continue
		}
		wp := geom.PinWorldXY(pin.PositionMM, pc.XMM, pc.YMM, pc.RotationDeg)
		dx, dy := wp[0]-target[0], wp[1]-target[1]
		d := math.Hypot(dx, dy)
		if d < bestDist {
			bestDist = d
			bestPin = pid
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return "", false
	}
	pool.Pools[groupID] = append(available[:bestIdx], available[bestIdx+1:]...)
	return bestPin, true
}
