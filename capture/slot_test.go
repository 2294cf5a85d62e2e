package capture

import (
	"testing"

	"go.viam.com/test"
)

type meta struct {
	Width int32
	TsNs  int64
}

func TestSlotEmpty(t *testing.T) {
	var slot Slot[meta]
	buf := make([]byte, 16)
	m, n, ok := slot.TryGet(buf)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, n, test.ShouldEqual, 0)
	test.That(t, m, test.ShouldResemble, meta{})
	test.That(t, slot.Size(), test.ShouldEqual, 0)
}

func TestSlotPublishAndGet(t *testing.T) {
	var slot Slot[meta]
	slot.Publish(meta{Width: 4, TsNs: 99}, []byte{1, 2, 3, 4})

	buf := make([]byte, 8)
	m, n, ok := slot.TryGet(buf)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, n, test.ShouldEqual, 4)
	test.That(t, m.Width, test.ShouldEqual, 4)
	test.That(t, m.TsNs, test.ShouldEqual, 99)
	test.That(t, buf[:4], test.ShouldResemble, []byte{1, 2, 3, 4})

	// not consumed; a second read sees the same frame
	_, n, ok = slot.TryGet(buf)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, n, test.ShouldEqual, 4)
}

func TestSlotCapacityNegotiation(t *testing.T) {
	var slot Slot[meta]
	slot.Publish(meta{TsNs: 1}, []byte{9, 9, 9, 9})

	small := []byte{7, 7}
	m, required, ok := slot.TryGet(small)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, required, test.ShouldEqual, 4)
	test.That(t, m, test.ShouldResemble, meta{})
	// buffer untouched on shortfall
	test.That(t, small, test.ShouldResemble, []byte{7, 7})

	grown := make([]byte, required)
	_, n, ok := slot.TryGet(grown)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, n, test.ShouldEqual, 4)
}

func TestSlotTryGetNewConsumes(t *testing.T) {
	var slot Slot[meta]
	slot.Publish(meta{TsNs: 5}, []byte{1, 2})

	buf := make([]byte, 4)
	_, _, ok := slot.TryGetNew(buf)
	test.That(t, ok, test.ShouldBeTrue)

	// consumed; no new data until the next publish
	_, _, ok = slot.TryGetNew(buf)
	test.That(t, ok, test.ShouldBeFalse)
	// but the plain read still sees it
	_, _, ok = slot.TryGet(buf)
	test.That(t, ok, test.ShouldBeTrue)

	slot.Publish(meta{TsNs: 6}, []byte{3, 4})
	test.That(t, slot.HasNew(), test.ShouldBeTrue)
	_, _, ok = slot.TryGetNew(buf)
	test.That(t, ok, test.ShouldBeTrue)
}

func TestSlotTryGetNewShortfallKeepsFlag(t *testing.T) {
	var slot Slot[meta]
	slot.Publish(meta{}, []byte{1, 2, 3, 4})

	small := make([]byte, 1)
	_, required, ok := slot.TryGetNew(small)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, required, test.ShouldEqual, 4)
	// negotiation must not eat the frame
	test.That(t, slot.HasNew(), test.ShouldBeTrue)

	_, _, ok = slot.TryGetNew(make([]byte, required))
	test.That(t, ok, test.ShouldBeTrue)
}

func TestSlotOverwrite(t *testing.T) {
	var slot Slot[meta]
	slot.Publish(meta{TsNs: 1}, []byte{1})
	slot.Publish(meta{TsNs: 2}, []byte{2, 2})

	buf := make([]byte, 4)
	m, n, ok := slot.TryGet(buf)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, m.TsNs, test.ShouldEqual, 2)
	test.That(t, n, test.ShouldEqual, 2)
}

func TestSlotPublishCopies(t *testing.T) {
	var slot Slot[meta]
	src := []byte{1, 2, 3}
	slot.Publish(meta{}, src)
	src[0] = 42

	buf := make([]byte, 4)
	_, _, ok := slot.TryGet(buf)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, buf[0], test.ShouldEqual, byte(1))
}

func TestSlotReset(t *testing.T) {
	var slot Slot[meta]
	slot.Publish(meta{TsNs: 1}, []byte{1})
	slot.Reset()

	buf := make([]byte, 4)
	_, _, ok := slot.TryGet(buf)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, slot.HasNew(), test.ShouldBeFalse)
}
