package mlsdk

import "github.com/google/uuid"

// SpaceType distinguishes on-device maps from shared/AR-cloud ones.
type SpaceType uint32

// Space types.
const (
	SpaceTypeOnDevice SpaceType = iota
	SpaceTypeARCloud
)

// LocalizationStatus is the device's relationship to a space.
type LocalizationStatus uint32

// Localization statuses.
const (
	LocalizationNotLocalized LocalizationStatus = iota
	LocalizationLocalized
	LocalizationPending
	LocalizationSleepingBeforeRetry
)

// Space is one mapped space known to the device.
type Space struct {
	ID   uuid.UUID
	Name string
	Type SpaceType
}

// LocalizationResult is the current localization state.
type LocalizationResult struct {
	Status            LocalizationStatus
	Space             Space
	TargetSpaceOrigin CFUID
}

// SpaceManager creates space sessions.
type SpaceManager interface {
	Create() (SpaceSession, error)
}

// SpaceSession queries and drives localization.
type SpaceSession interface {
	LocalizationResult() (LocalizationResult, Result)
	SpaceList() ([]Space, error)
	RequestLocalization(id uuid.UUID) error
	Destroy() error
}
