package perception

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk/fake"
)

func TestServiceRefCounting(t *testing.T) {
	logger := golog.NewTestLogger(t)
	backend := fake.NewPerception()
	svc := NewService(backend, logger)

	test.That(t, svc.Started(), test.ShouldBeFalse)

	t1, err := svc.Acquire()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, backend.Startups(), test.ShouldEqual, 1)
	test.That(t, svc.Started(), test.ShouldBeTrue)

	// second claim reuses the running backend
	t2, err := svc.Acquire()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, backend.Startups(), test.ShouldEqual, 1)

	t1.Release()
	test.That(t, backend.Shutdowns(), test.ShouldEqual, 0)
	test.That(t, svc.Started(), test.ShouldBeTrue)

	t2.Release()
	test.That(t, backend.Shutdowns(), test.ShouldEqual, 1)
	test.That(t, svc.Started(), test.ShouldBeFalse)
}

func TestServiceTokenReleaseIdempotent(t *testing.T) {
	logger := golog.NewTestLogger(t)
	backend := fake.NewPerception()
	svc := NewService(backend, logger)

	t1, err := svc.Acquire()
	test.That(t, err, test.ShouldBeNil)
	t2, err := svc.Acquire()
	test.That(t, err, test.ShouldBeNil)

	t1.Release()
	t1.Release()
	t1.Release()
	// extra releases must not steal t2's claim
	test.That(t, svc.Started(), test.ShouldBeTrue)
	test.That(t, backend.Shutdowns(), test.ShouldEqual, 0)

	t2.Release()
	test.That(t, svc.Started(), test.ShouldBeFalse)
}

func TestServiceStartupFailure(t *testing.T) {
	logger := golog.NewTestLogger(t)
	backend := fake.NewPerception()
	backend.StartupErr = errors.New("no device")
	svc := NewService(backend, logger)

	_, err := svc.Acquire()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, svc.Started(), test.ShouldBeFalse)

	// a later attempt succeeds once the fault clears
	backend.StartupErr = nil
	tok, err := svc.Acquire()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, backend.Startups(), test.ShouldEqual, 1)
	tok.Release()
}

func TestServiceSnapshotRequiresClaim(t *testing.T) {
	logger := golog.NewTestLogger(t)
	backend := fake.NewPerception()
	svc := NewService(backend, logger)

	_, err := svc.Snapshot()
	test.That(t, err, test.ShouldNotBeNil)

	tok, err := svc.Acquire()
	test.That(t, err, test.ShouldBeNil)
	snap, err := svc.Snapshot()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, snap, test.ShouldNotBeNil)
	snap.Release()
	tok.Release()
}
