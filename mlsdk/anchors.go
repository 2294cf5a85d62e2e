package mlsdk

import (
	"github.com/google/uuid"

	"github.com/ali867auckland/MagicLeap2SensorReading/spatial"
)

// Anchor is a service-side spatial anchor. Its CFUID is what snapshots
// resolve to a live pose; the ID is the stable identity used for deletion.
type Anchor struct {
	ID    uuid.UUID
	CFUID CFUID
}

// AnchorTracking creates anchor sessions.
type AnchorTracking interface {
	Create() (AnchorSession, error)
}

// AnchorSession creates and deletes anchors. The service holds the
// authoritative list; List exists so local mirrors can refresh after
// out-of-band creation.
type AnchorSession interface {
	CreateAnchor(pose spatial.Pose) (Anchor, Result)
	DeleteAnchor(id uuid.UUID) Result
	List() ([]Anchor, error)
	Destroy() error
}
