package space

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk/fake"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
	"github.com/ali867auckland/MagicLeap2SensorReading/spatial"
)

func newTracker(t *testing.T, spaces ...mlsdk.Space) (*Tracker, *fake.SpaceManager, *fake.Perception) {
	t.Helper()
	logger := golog.NewTestLogger(t)
	backend := fake.NewPerception()
	manager := &fake.SpaceManager{Spaces: spaces}
	return New(manager, perception.NewService(backend, logger), logger), manager, backend
}

func TestSpacesAndLocalization(t *testing.T) {
	office := mlsdk.Space{ID: uuid.New(), Name: "office", Type: mlsdk.SpaceTypeOnDevice}
	lab := mlsdk.Space{ID: uuid.New(), Name: "lab", Type: mlsdk.SpaceTypeARCloud}
	tracker, manager, _ := newTracker(t, office, lab)
	test.That(t, tracker.Init(), test.ShouldBeNil)
	defer func() { test.That(t, tracker.Close(), test.ShouldBeNil) }()

	spaces, err := tracker.Spaces()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spaces, test.ShouldHaveLength, 2)

	loc, res := tracker.Localization()
	test.That(t, res, test.ShouldEqual, mlsdk.ResultOk)
	test.That(t, loc.Status, test.ShouldEqual, mlsdk.LocalizationNotLocalized)

	test.That(t, tracker.RequestLocalization(office.ID), test.ShouldBeNil)
	loc, res = tracker.Localization()
	test.That(t, res, test.ShouldEqual, mlsdk.ResultOk)
	test.That(t, loc.Status, test.ShouldEqual, mlsdk.LocalizationLocalized)
	test.That(t, loc.Space.Name, test.ShouldEqual, "office")
	test.That(t, manager.Session().Requests(), test.ShouldHaveLength, 1)
}

func TestLocalizationIntoUnknownSpacePends(t *testing.T) {
	tracker, _, _ := newTracker(t)
	test.That(t, tracker.Init(), test.ShouldBeNil)
	defer func() { test.That(t, tracker.Close(), test.ShouldBeNil) }()

	test.That(t, tracker.RequestLocalization(uuid.New()), test.ShouldBeNil)
	loc, res := tracker.Localization()
	test.That(t, res, test.ShouldEqual, mlsdk.ResultOk)
	test.That(t, loc.Status, test.ShouldEqual, mlsdk.LocalizationPending)
}

func TestOriginPose(t *testing.T) {
	home := mlsdk.Space{ID: uuid.New(), Name: "home", Type: mlsdk.SpaceTypeOnDevice}
	tracker, _, backend := newTracker(t, home)
	test.That(t, tracker.Init(), test.ShouldBeNil)
	defer func() { test.That(t, tracker.Close(), test.ShouldBeNil) }()

	// not localized: no origin yet
	_, res := tracker.OriginPose()
	test.That(t, res, test.ShouldEqual, mlsdk.ResultPoseNotFound)

	want := spatial.NewPose(r3.Vector{Y: 1.2}, quat.Number{Real: 1})
	backend.SetTransform(mlsdk.CFUIDFromUUID(home.ID), want)
	test.That(t, tracker.RequestLocalization(home.ID), test.ShouldBeNil)

	pose, res := tracker.OriginPose()
	test.That(t, res, test.ShouldEqual, mlsdk.ResultOk)
	test.That(t, pose, test.ShouldResemble, want)
}

func TestQueriesBeforeInit(t *testing.T) {
	tracker, _, _ := newTracker(t)
	_, res := tracker.Localization()
	test.That(t, res, test.ShouldEqual, mlsdk.ResultPerceptionSystemNotStarted)
	_, err := tracker.Spaces()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, tracker.RequestLocalization(uuid.New()), test.ShouldNotBeNil)
	test.That(t, tracker.Close(), test.ShouldBeNil)
}
