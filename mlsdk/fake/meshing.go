package fake

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
)

// Meshing is an in-memory meshing backend.
type Meshing struct {
	// CreateErr, when set, is returned by CreateClient.
	CreateErr error

	mu     sync.Mutex
	client *MeshClient
}

// CreateClient implements mlsdk.Meshing.
func (m *Meshing) CreateClient(settings mlsdk.MeshSettings) (mlsdk.MeshClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.client = &MeshClient{
		settings: settings,
		pending:  map[mlsdk.Handle]*meshRequest{},
	}
	return m.client, nil
}

// Client returns the client from the most recent CreateClient.
func (m *Meshing) Client() *MeshClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}

type meshRequest struct {
	info    *mlsdk.MeshInfo
	mesh    *mlsdk.Mesh
	blocks  []mlsdk.MeshBlockRequest
	resolve bool
	fail    bool
	freed   bool
}

// MeshClient is a completable meshing client: requests stay Pending until
// the test resolves or fails them.
type MeshClient struct {
	mu       sync.Mutex
	settings mlsdk.MeshSettings
	next     mlsdk.Handle
	pending  map[mlsdk.Handle]*meshRequest

	// NextInfo and NextMesh pre-resolve new requests when set, so polling
	// succeeds on the first pass without explicit Complete calls.
	NextInfo *mlsdk.MeshInfo
	NextMesh *mlsdk.Mesh
}

// Settings returns the settings the client was created with.
func (c *MeshClient) Settings() mlsdk.MeshSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// RequestMeshInfo implements mlsdk.MeshClient.
func (c *MeshClient) RequestMeshInfo(extents mlsdk.MeshExtents) (mlsdk.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	req := &meshRequest{}
	if c.NextInfo != nil {
		req.info = c.NextInfo
		req.resolve = true
	}
	c.pending[c.next] = req
	return c.next, nil
}

// MeshInfoResult implements mlsdk.MeshClient.
func (c *MeshClient) MeshInfoResult(request mlsdk.Handle) (*mlsdk.MeshInfo, mlsdk.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.pending[request]
	if !ok {
		return nil, mlsdk.ResultInvalidParam
	}
	if req.fail {
		return nil, mlsdk.ResultUnspecifiedFailure
	}
	if !req.resolve || req.info == nil {
		return nil, mlsdk.ResultPending
	}
	return req.info, mlsdk.ResultOk
}

// RequestMesh implements mlsdk.MeshClient.
func (c *MeshClient) RequestMesh(request mlsdk.MeshRequest) (mlsdk.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	req := &meshRequest{blocks: append([]mlsdk.MeshBlockRequest(nil), request.Blocks...)}
	if c.NextMesh != nil {
		req.mesh = c.NextMesh
		req.resolve = true
	}
	c.pending[c.next] = req
	return c.next, nil
}

// MeshResult implements mlsdk.MeshClient.
func (c *MeshClient) MeshResult(request mlsdk.Handle) (*mlsdk.Mesh, mlsdk.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.pending[request]
	if !ok {
		return nil, mlsdk.ResultInvalidParam
	}
	if req.fail {
		return nil, mlsdk.ResultUnspecifiedFailure
	}
	if !req.resolve || req.mesh == nil {
		return nil, mlsdk.ResultPending
	}
	return req.mesh, mlsdk.ResultOk
}

// CompleteInfo resolves a pending info request.
func (c *MeshClient) CompleteInfo(request mlsdk.Handle, info *mlsdk.MeshInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.pending[request]
	if !ok {
		return errors.Errorf("unknown request %d", request)
	}
	req.info = info
	req.resolve = true
	return nil
}

// CompleteMesh resolves a pending data request.
func (c *MeshClient) CompleteMesh(request mlsdk.Handle, mesh *mlsdk.Mesh) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.pending[request]
	if !ok {
		return errors.Errorf("unknown request %d", request)
	}
	req.mesh = mesh
	req.resolve = true
	return nil
}

// FailRequest makes a pending request report a hard failure.
func (c *MeshClient) FailRequest(request mlsdk.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if req, ok := c.pending[request]; ok {
		req.fail = true
	}
}

// RequestedBlocks returns the block list of a data request.
func (c *MeshClient) RequestedBlocks(request mlsdk.Handle) []mlsdk.MeshBlockRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if req, ok := c.pending[request]; ok {
		return req.blocks
	}
	return nil
}

// LastHandle returns the most recently issued request handle.
func (c *MeshClient) LastHandle() mlsdk.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// FreeResource implements mlsdk.MeshClient.
func (c *MeshClient) FreeResource(request mlsdk.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if req, ok := c.pending[request]; ok {
		req.freed = true
	}
}

// Freed reports whether FreeResource was called for a handle.
func (c *MeshClient) Freed(request mlsdk.Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.pending[request]
	return ok && req.freed
}

// Destroy implements mlsdk.MeshClient.
func (c *MeshClient) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = map[mlsdk.Handle]*meshRequest{}
	return nil
}
