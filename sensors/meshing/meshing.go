// Package meshing reconstructs world geometry through the asynchronous
// meshing service.
//
// A mesh update is a two-stage conversation: first an info request lists the
// blocks intersecting the query region, then a data request fetches their
// geometry in bounded batches. The service rejects overlapping conversations,
// so a second update cannot start until the first resolves, times out, or is
// cancelled. Results are one-shot: reading the summary or the geometry
// consumes it.
package meshing

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
	"gonum.org/v1/gonum/num/quat"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
)

// State names the update conversation's position.
type State int32

// Update states.
const (
	StateIdle State = iota
	StateWaitingForInfo
	StateWaitingForMesh
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateWaitingForInfo:
		return "WaitingForInfo"
	case StateWaitingForMesh:
		return "WaitingForMesh"
	default:
		return "Unknown"
	}
}

const (
	infoTimeout = 5 * time.Second
	meshTimeout = 10 * time.Second

	// defaultExtentMeters is the edge length of the query cube when the
	// config leaves the region unset.
	defaultExtentMeters = 10

	// maxBlocksPerRequest bounds one data request; overlarge batches time
	// out service-side.
	maxBlocksPerRequest = 64
)

// Config selects mesh generation options and the query region.
type Config struct {
	Flags                     mlsdk.MeshingFlags
	FillHoleLength            float32
	DisconnectedComponentArea float32
	Level                     mlsdk.MeshLOD

	// QueryExtents is the region meshed per update. Zero extents mean a
	// head-centered cube of defaultExtentMeters per side.
	QueryExtents mlsdk.MeshExtents
}

// Validate rejects negative generation parameters.
func (cfg *Config) Validate(path string) error {
	if cfg.FillHoleLength < 0 {
		return goutils.NewConfigValidationError(path, errors.New("fill_hole_length must be non-negative"))
	}
	if cfg.DisconnectedComponentArea < 0 {
		return goutils.NewConfigValidationError(path, errors.New("disconnected_component_area must be non-negative"))
	}
	return nil
}

// Summary describes one completed update. It is consumed by TryGetSummary.
type Summary struct {
	TimestampNs   int64
	BlockCount    int
	NewBlocks     int
	UpdatedBlocks int
	DeletedBlocks int
	VertexCount   int
	IndexCount    int
}

// Data is the aggregated geometry of one completed update. Block meshes are
// concatenated; indices are rebased onto the combined vertex array.
type Data struct {
	TimestampNs int64
	Vertices    []r3.Vector
	Normals     []r3.Vector
	Confidence  []float32
	Indices     []uint32
}

// Service drives mesh updates. Callers pump Update on their own cadence; the
// injected clock decides when a stuck conversation is abandoned.
type Service struct {
	logger  golog.Logger
	backend mlsdk.Meshing
	svc     *perception.Service
	clock   clock.Clock

	mu      sync.Mutex
	running bool
	client  mlsdk.MeshClient
	token   *perception.Token

	level   mlsdk.MeshLOD
	extents mlsdk.MeshExtents

	state         State
	request       mlsdk.Handle
	requestedAt   time.Time
	pendingBlocks []mlsdk.MeshBlockRequest
	lastInfo      []mlsdk.MeshBlockInfo
	infoTimestamp int64

	building Data

	summary    Summary
	hasSummary bool
	data       Data
	hasData    bool

	timeouts int64
}

// New returns an unconnected meshing service. clk may be nil to use the wall
// clock.
func New(backend mlsdk.Meshing, svc *perception.Service, clk clock.Clock, logger golog.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	return &Service{logger: logger, backend: backend, svc: svc, clock: clk}
}

// Init creates the meshing client. Calling Init while running is a no-op.
func (s *Service) Init(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Info("already running")
		return nil
	}
	if err := cfg.Validate("meshing"); err != nil {
		return err
	}

	extents := cfg.QueryExtents
	if extents.Extents == (r3.Vector{}) {
		extents = mlsdk.MeshExtents{
			Rotation: quat.Number{Real: 1},
			Extents:  r3.Vector{X: defaultExtentMeters, Y: defaultExtentMeters, Z: defaultExtentMeters},
		}
	}

	token, err := s.svc.Acquire()
	if err != nil {
		return err
	}
	client, err := s.backend.CreateClient(mlsdk.MeshSettings{
		Flags:                     cfg.Flags,
		FillHoleLength:            cfg.FillHoleLength,
		DisconnectedComponentArea: cfg.DisconnectedComponentArea,
	})
	if err != nil {
		token.Release()
		return errors.Wrap(err, "meshing client create failed")
	}

	s.client = client
	s.token = token
	s.level = cfg.Level
	s.extents = extents
	s.state = StateIdle
	s.request = mlsdk.InvalidHandle
	s.running = true
	return nil
}

// RequestMeshUpdate starts a new update conversation. It fails while a
// previous one is still in flight; the service cannot interleave requests.
func (s *Service) RequestMeshUpdate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return errors.New("meshing not initialized")
	}
	if s.state != StateIdle {
		return errors.Errorf("mesh update already in flight (%s)", s.state)
	}

	handle, err := s.client.RequestMeshInfo(s.extents)
	if err != nil {
		return errors.Wrap(err, "mesh info request failed")
	}
	s.state = StateWaitingForInfo
	s.request = handle
	s.requestedAt = s.clock.Now()
	return nil
}

// Update advances the conversation by one poll. It never blocks; call it on
// the consumer's cadence. Returns the state after the poll.
func (s *Service) Update() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return StateIdle
	}

	switch s.state {
	case StateWaitingForInfo:
		s.pollInfo()
	case StateWaitingForMesh:
		s.pollMesh()
	}
	return s.state
}

func (s *Service) pollInfo() {
	info, res := s.client.MeshInfoResult(s.request)
	switch {
	case res == mlsdk.ResultPending:
		if s.clock.Since(s.requestedAt) > infoTimeout {
			s.abandon("mesh info request timed out")
		}
	case res.Ok():
		s.client.FreeResource(s.request)
		s.request = mlsdk.InvalidHandle
		s.onInfo(info)
	default:
		s.logger.Errorw("mesh info request failed", "result", res.String())
		s.abandon("")
	}
}

func (s *Service) onInfo(info *mlsdk.MeshInfo) {
	s.lastInfo = append(s.lastInfo[:0], info.Blocks...)
	s.infoTimestamp = info.TimestampNs

	s.pendingBlocks = s.pendingBlocks[:0]
	summary := Summary{TimestampNs: info.TimestampNs, BlockCount: len(info.Blocks)}
	for _, block := range info.Blocks {
		switch block.State {
		case mlsdk.MeshBlockNew:
			summary.NewBlocks++
		case mlsdk.MeshBlockUpdated:
			summary.UpdatedBlocks++
		case mlsdk.MeshBlockDeleted:
			summary.DeletedBlocks++
			continue
		}
		s.pendingBlocks = append(s.pendingBlocks, mlsdk.MeshBlockRequest{ID: block.ID, Level: s.level})
	}
	s.summary = summary
	s.building = Data{TimestampNs: info.TimestampNs}

	if len(s.pendingBlocks) == 0 {
		s.finish()
		return
	}
	s.requestNextBatch()
}

// requestNextBatch issues the next bounded slice of pendingBlocks. On a
// request error the whole conversation is abandoned; partial geometry is
// never published.
func (s *Service) requestNextBatch() {
	n := len(s.pendingBlocks)
	if n > maxBlocksPerRequest {
		n = maxBlocksPerRequest
	}
	batch := mlsdk.MeshRequest{Blocks: s.pendingBlocks[:n]}
	handle, err := s.client.RequestMesh(batch)
	if err != nil {
		s.logger.Errorw("mesh data request failed", "error", err)
		s.state = StateIdle
		s.pendingBlocks = s.pendingBlocks[:0]
		return
	}
	s.pendingBlocks = s.pendingBlocks[n:]
	s.state = StateWaitingForMesh
	s.request = handle
	s.requestedAt = s.clock.Now()
}

func (s *Service) pollMesh() {
	mesh, res := s.client.MeshResult(s.request)
	switch {
	case res == mlsdk.ResultPending:
		if s.clock.Since(s.requestedAt) > meshTimeout {
			s.abandon("mesh data request timed out")
		}
	case res.Ok():
		s.client.FreeResource(s.request)
		s.request = mlsdk.InvalidHandle
		s.aggregate(mesh)
		if len(s.pendingBlocks) > 0 {
			s.requestNextBatch()
			return
		}
		s.finish()
	default:
		s.logger.Errorw("mesh data request failed", "result", res.String())
		s.abandon("")
	}
}

// aggregate folds one batch of block geometry into the building mesh,
// rebasing each block's indices onto the combined vertex array.
func (s *Service) aggregate(mesh *mlsdk.Mesh) {
	for i := range mesh.Blocks {
		block := &mesh.Blocks[i]
		if block.ResultCode != mlsdk.MeshResultSuccess &&
			block.ResultCode != mlsdk.MeshResultPartialUpdate {
			continue
		}
		base := uint32(len(s.building.Vertices))
		s.building.Vertices = append(s.building.Vertices, block.Vertices...)
		s.building.Normals = append(s.building.Normals, block.Normals...)
		s.building.Confidence = append(s.building.Confidence, block.Confidence...)
		for _, idx := range block.Indices {
			s.building.Indices = append(s.building.Indices, base+uint32(idx))
		}
	}
}

func (s *Service) finish() {
	s.summary.VertexCount = len(s.building.Vertices)
	s.summary.IndexCount = len(s.building.Indices)
	s.hasSummary = true
	s.data = s.building
	s.hasData = true
	s.building = Data{}
	s.state = StateIdle
	s.logger.Debugf("mesh update complete: %d blocks, %d vertices",
		s.summary.BlockCount, s.summary.VertexCount)
}

// abandon frees the in-flight handle and resets to Idle without publishing.
func (s *Service) abandon(msg string) {
	if msg != "" {
		s.logger.Warnw(msg, "state", s.state.String(),
			"elapsed", s.clock.Since(s.requestedAt).String())
		s.timeouts++
	}
	if s.request.Valid() {
		s.client.FreeResource(s.request)
	}
	s.request = mlsdk.InvalidHandle
	s.pendingBlocks = s.pendingBlocks[:0]
	s.building = Data{}
	s.state = StateIdle
}

// TryGetSummary returns and consumes the last completed update's summary.
func (s *Service) TryGetSummary() (Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSummary {
		return Summary{}, false
	}
	s.hasSummary = false
	return s.summary, true
}

// TryGetMeshData returns and consumes the last completed update's geometry.
func (s *Service) TryGetMeshData() (Data, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasData {
		return Data{}, false
	}
	s.hasData = false
	return s.data, true
}

// BlockInfos returns a copy of the block list from the last resolved info
// request. Unlike the summary and geometry, it is not consumed.
func (s *Service) BlockInfos() []mlsdk.MeshBlockInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]mlsdk.MeshBlockInfo, len(s.lastInfo))
	copy(out, s.lastInfo)
	return out
}

// CurrentState returns the conversation state.
func (s *Service) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Timeouts returns how many conversations were abandoned to timeouts.
func (s *Service) Timeouts() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeouts
}

// IsInitialized reports whether the client is live.
func (s *Service) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Close abandons any in-flight conversation and destroys the client. Safe to
// call before Init and safe to call repeatedly.
func (s *Service) Close() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.abandon("")
	client, token := s.client, s.token
	s.client, s.token = nil, nil
	s.lastInfo = nil
	s.hasSummary, s.hasData = false, false
	s.mu.Unlock()

	err := client.Destroy()
	token.Release()
	return err
}
