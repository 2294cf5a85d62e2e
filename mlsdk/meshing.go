package mlsdk

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// MeshingFlags configure mesh generation.
type MeshingFlags uint32

// Meshing flags.
const (
	MeshingFlagPointCloud        MeshingFlags = 1 << 0
	MeshingFlagComputeNormals    MeshingFlags = 1 << 1
	MeshingFlagComputeConfidence MeshingFlags = 1 << 2
	MeshingFlagPlanarize         MeshingFlags = 1 << 3
	MeshingFlagRemoveOverlap     MeshingFlags = 1 << 4
	MeshingFlagIndexOrderCW      MeshingFlags = 1 << 5
)

// MeshLOD is the level of detail for a mesh data request.
type MeshLOD int32

// Mesh levels of detail.
const (
	MeshLODMinimum MeshLOD = iota
	MeshLODMedium
	MeshLODMaximum
)

// MeshBlockState describes how a block changed since the previous info query.
type MeshBlockState int32

// Mesh block states.
const (
	MeshBlockNew MeshBlockState = iota
	MeshBlockUpdated
	MeshBlockDeleted
	MeshBlockUnchanged
)

// MeshSettings is the meshing client configuration.
type MeshSettings struct {
	Flags                     MeshingFlags
	FillHoleLength            float32
	DisconnectedComponentArea float32
}

// MeshExtents is an oriented bounding region for mesh queries.
type MeshExtents struct {
	Center   r3.Vector
	Rotation quat.Number
	Extents  r3.Vector
}

// MeshBlockInfo describes one mesh block known to the service.
type MeshBlockInfo struct {
	ID          CFUID
	Extents     MeshExtents
	TimestampNs int64
	State       MeshBlockState
}

// MeshInfo is the result of an info request.
type MeshInfo struct {
	TimestampNs int64
	Blocks      []MeshBlockInfo
}

// MeshBlockRequest asks for the geometry of one block.
type MeshBlockRequest struct {
	ID    CFUID
	Level MeshLOD
}

// MeshRequest is a bounded batch of block requests. Callers limit the batch
// size; overlarge requests time out service-side.
type MeshRequest struct {
	Blocks []MeshBlockRequest
}

// MeshResultCode is the per-block outcome of a data request.
type MeshResultCode int32

// Mesh block result codes.
const (
	MeshResultSuccess MeshResultCode = iota
	MeshResultFailed
	MeshResultPendingBlock
	MeshResultPartialUpdate
)

// MeshBlock is the geometry of one block.
type MeshBlock struct {
	ID         CFUID
	ResultCode MeshResultCode
	Vertices   []r3.Vector
	Indices    []uint16
	Normals    []r3.Vector
	Confidence []float32
}

// Mesh is the result of a data request.
type Mesh struct {
	Blocks []MeshBlock
}

// Meshing creates meshing clients.
type Meshing interface {
	CreateClient(settings MeshSettings) (MeshClient, error)
}

// MeshClient issues asynchronous mesh queries. Requests are polled: the
// matching result call returns ResultPending until the request resolves, and
// the request handle must be freed exactly once afterwards. The service does
// not support overlapping data requests.
type MeshClient interface {
	RequestMeshInfo(extents MeshExtents) (Handle, error)
	MeshInfoResult(request Handle) (*MeshInfo, Result)
	RequestMesh(request MeshRequest) (Handle, error)
	MeshResult(request Handle) (*Mesh, Result)
	FreeResource(request Handle)
	Destroy() error
}
