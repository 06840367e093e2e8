// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ledger

import (
	"context"
	"crypto/sha256"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/attest/address"
	"github.com/blinklabs-io/attest/certificate"
	"github.com/blinklabs-io/attest/compression"
	"github.com/blinklabs-io/attest/database"
	"github.com/blinklabs-io/attest/event"
)

type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Deliver(evt event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recorder) Close() {}

func (r *recorder) types() []event.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make([]event.EventType, 0, len(r.events))
	for _, evt := range r.events {
		ret = append(ret, evt.Type)
	}
	return ret
}

func (r *recorder) last() event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type testClock struct {
	now int64
}

func (c *testClock) Now() time.Time {
	return time.Unix(c.now, 0)
}

type failingIssuer struct{}

func (failingIssuer) Mint(
	context.Context,
	certificate.MintRequest,
	*database.Txn,
) (address.Location, error) {
	return address.Location{}, errors.New("issuer unavailable")
}

// abortingIssuer stores the certificate and then fails the operation while
// abort is set
type abortingIssuer struct {
	*certificate.LocalIssuer
	abort bool
}

func (i *abortingIssuer) Mint(
	ctx context.Context,
	req certificate.MintRequest,
	txn *database.Txn,
) (address.Location, error) {
	assetID, err := i.LocalIssuer.Mint(ctx, req, txn)
	if err != nil {
		return address.Location{}, err
	}
	if i.abort {
		return address.Location{}, errors.New("link rejected")
	}
	return assetID, nil
}

type failingCompressor struct{}

func (failingCompressor) Compress(
	context.Context,
	compression.CompressRequest,
) (address.Location, error) {
	return address.Location{}, errors.New("compressor unavailable")
}

type testEnv struct {
	ledger   *Ledger
	db       *database.Database
	events   *recorder
	clock    *testClock
	registry *prometheus.Registry
	admin    address.Identity
	alice    address.Identity
	bob      address.Identity
}

func identity(b byte) address.Identity {
	var ret address.Identity
	for i := range ret {
		ret[i] = b
	}
	return ret
}

func newTestEnv(t *testing.T, opts ...func(*Config)) *testEnv {
	t.Helper()
	db, err := database.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(bus.Stop)
	rec := &recorder{}
	for _, evtType := range EventTypes {
		bus.RegisterSubscriber(evtType, rec)
	}
	env := &testEnv{
		db:       db,
		events:   rec,
		clock:    &testClock{now: 1_700_000_000},
		registry: prometheus.NewRegistry(),
		admin:    identity(1),
		alice:    identity(2),
		bob:      identity(3),
	}
	cfg := Config{
		Database:     db,
		EventBus:     bus,
		PromRegistry: env.registry,
		Clock:        env.clock.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	env.ledger, err = New(cfg)
	require.NoError(t, err)
	require.NoError(t, env.ledger.Initialize(context.Background(), env.admin))
	return env
}

func helloParams() CreateParams {
	return CreateParams{
		ContentHash:    HashContent([]byte("hello")),
		ContentType:    "text",
		DetectionModel: "gpt-detector-v2",
		MetadataURI:    "ipfs://Qm...",
		AiProbability:  8500,
	}
}

func paramsFor(content string, probability uint16) CreateParams {
	p := helloParams()
	p.ContentHash = HashContent([]byte(content))
	p.AiProbability = probability
	return p
}

func TestNewRequiresDatabase(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestInitialize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pc, err := env.ledger.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, env.admin, pc.Admin)
	assert.Equal(t, uint64(0), pc.TotalAttestations)
	assert.Equal(t, uint64(0), pc.TotalCertificates)
	assert.False(t, pc.IsPaused)
	assert.False(t, pc.ExternalTree.Registered)
	assert.Equal(t, RecordVersion, pc.Version)
	assert.Equal(
		t,
		[]event.EventType{EventTypeProgramInitialized},
		env.events.types(),
	)

	err = env.ledger.Initialize(ctx, env.alice)
	require.ErrorIs(t, err, ErrAlreadyInitialized)
	require.ErrorIs(t, err, ErrResource)
	pc, err = env.ledger.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, env.admin, pc.Admin)
}

func TestConfigNotInitialized(t *testing.T) {
	db, err := database.New(nil)
	require.NoError(t, err)
	defer db.Close()
	l, err := New(Config{Database: db})
	require.NoError(t, err)
	ctx := context.Background()
	_, err = l.Config(ctx)
	require.ErrorIs(t, err, ErrNotInitialized)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = l.CreateAttestation(ctx, identity(2), helloParams())
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestCreateAttestationHello(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	params := helloParams()
	expectedHash := sha256.Sum256([]byte("hello"))
	require.Equal(t, ContentHash(expectedHash), params.ContentHash)
	assert.Equal(
		t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		params.ContentHash.String(),
	)

	created, err := env.ledger.CreateAttestation(ctx, env.alice, params)
	require.NoError(t, err)

	att, err := env.ledger.Attestation(ctx, params.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, created, att)
	assert.Equal(t, params.ContentHash, att.ContentHash)
	assert.Equal(t, "text", att.ContentType)
	assert.Equal(t, "gpt-detector-v2", att.DetectionModel)
	assert.Equal(t, "ipfs://Qm...", att.MetadataURI)
	assert.Equal(t, uint16(8500), att.AiProbability)
	assert.Equal(t, env.alice, att.Creator)
	assert.Equal(t, env.clock.now, att.CreatedAt)
	assert.Equal(t, RecordVersion, att.Version)
	assert.Equal(t, Verification{}, att.Verification)
	assert.Equal(t, CertificateLink{}, att.Certificate)
	assert.Equal(t, Compression{}, att.Compression)
	assert.Equal(t, ClassAiGenerated, att.Classification())

	pc, err := env.ledger.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pc.TotalAttestations)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(env.ledger.metrics.totalAttestations),
		0,
	)

	evt := env.events.last()
	assert.Equal(t, EventTypeAttestationCreated, evt.Type)
	data, ok := evt.Data.(AttestationCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, params.ContentHash, data.ContentHash)
	assert.Equal(t, params.AiProbability, data.AiProbability)
	assert.Equal(t, env.alice, data.Creator)
	assert.Equal(t, env.clock.now, data.Timestamp)
}

func TestCreateAttestationDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	params := helloParams()
	_, err := env.ledger.CreateAttestation(ctx, env.alice, params)
	require.NoError(t, err)
	before, err := env.ledger.AttestationRaw(ctx, params.ContentHash)
	require.NoError(t, err)

	env.clock.now += 60
	dup := params
	dup.AiProbability = 100
	dup.MetadataURI = "ipfs://other"
	_, err = env.ledger.CreateAttestation(ctx, env.bob, dup)
	require.ErrorIs(t, err, ErrAttestationExists)
	require.ErrorIs(t, err, ErrResource)

	after, err := env.ledger.AttestationRaw(ctx, params.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	pc, err := env.ledger.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pc.TotalAttestations)
}

func TestCreateAttestationValidation(t *testing.T) {
	testDefs := []struct {
		name   string
		modify func(*CreateParams)
		err    error
	}{
		{
			name:   "empty content hash",
			modify: func(p *CreateParams) { p.ContentHash = ContentHash{} },
			err:    ErrEmptyContentHash,
		},
		{
			name:   "probability above maximum",
			modify: func(p *CreateParams) { p.AiProbability = 10001 },
			err:    ErrInvalidProbability,
		},
		{
			name:   "content type too long",
			modify: func(p *CreateParams) { p.ContentType = strings.Repeat("a", 21) },
			err:    ErrContentTypeTooLong,
		},
		{
			name:   "model name too long",
			modify: func(p *CreateParams) { p.DetectionModel = strings.Repeat("m", 33) },
			err:    ErrModelNameTooLong,
		},
		{
			name:   "uri too long",
			modify: func(p *CreateParams) { p.MetadataURI = strings.Repeat("u", 201) },
			err:    ErrUriTooLong,
		},
		{
			name: "first failure wins",
			modify: func(p *CreateParams) {
				p.AiProbability = 10001
				p.ContentType = strings.Repeat("a", 21)
			},
			err: ErrInvalidProbability,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			params := helloParams()
			testDef.modify(&params)
			_, err := env.ledger.CreateAttestation(ctx, env.alice, params)
			require.ErrorIs(t, err, testDef.err)
			require.ErrorIs(t, err, ErrValidation)
			_, err = env.ledger.AttestationRaw(ctx, params.ContentHash)
			require.ErrorIs(t, err, ErrAttestationNotFound)
			pc, err := env.ledger.Config(ctx)
			require.NoError(t, err)
			assert.Equal(t, uint64(0), pc.TotalAttestations)
		})
	}
}

func TestCreateAttestationBoundaries(t *testing.T) {
	env := newTestEnv(t)
	params := CreateParams{
		ContentHash:    HashContent([]byte("bounds")),
		ContentType:    strings.Repeat("a", MaxContentTypeLen),
		DetectionModel: strings.Repeat("m", MaxDetectionModelLen),
		MetadataURI:    strings.Repeat("u", MaxMetadataURILen),
		AiProbability:  MaxAiProbability,
	}
	_, err := env.ledger.CreateAttestation(
		context.Background(),
		env.alice,
		params,
	)
	require.NoError(t, err)
}

func TestCreateAttestationPaused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.ledger.SetPaused(ctx, env.admin, true))
	params := helloParams()
	params.AiProbability = 10001
	_, err := env.ledger.CreateAttestation(ctx, env.alice, params)
	require.ErrorIs(t, err, ErrProgramPaused)
	require.ErrorIs(t, err, ErrState)

	require.NoError(t, env.ledger.SetPaused(ctx, env.admin, false))
	_, err = env.ledger.CreateAttestation(ctx, env.alice, helloParams())
	require.NoError(t, err)
}

func TestSetPausedAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	err := env.ledger.SetPaused(ctx, env.alice, true)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.ErrorIs(t, err, ErrAuthorization)
	pc, err := env.ledger.Config(ctx)
	require.NoError(t, err)
	assert.False(t, pc.IsPaused)

	require.NoError(t, env.ledger.SetPaused(ctx, env.admin, true))
	pc, err = env.ledger.Config(ctx)
	require.NoError(t, err)
	assert.True(t, pc.IsPaused)
	assert.InDelta(t, 1, testutil.ToFloat64(env.ledger.metrics.paused), 0)
	data, ok := env.events.last().Data.(ProgramPauseToggledEvent)
	require.True(t, ok)
	assert.True(t, data.Paused)
	assert.Equal(t, env.admin, data.Admin)
}

func TestTransferAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	err := env.ledger.TransferAdmin(ctx, env.alice, env.alice)
	require.ErrorIs(t, err, ErrUnauthorized)
	err = env.ledger.TransferAdmin(ctx, env.admin, address.Identity{})
	require.ErrorIs(t, err, ErrInvalidIdentity)
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, env.ledger.TransferAdmin(ctx, env.admin, env.bob))
	pc, err := env.ledger.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, env.bob, pc.Admin)
	data, ok := env.events.last().Data.(AdminTransferredEvent)
	require.True(t, ok)
	assert.Equal(t, env.admin, data.OldAdmin)
	assert.Equal(t, env.bob, data.NewAdmin)

	require.ErrorIs(
		t,
		env.ledger.SetPaused(ctx, env.admin, true),
		ErrUnauthorized,
	)
	require.NoError(t, env.ledger.SetPaused(ctx, env.bob, true))
}

func TestRegisterExternalTree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tree := address.Derive(address.NamespaceConfig, []byte("tree"))
	require.ErrorIs(
		t,
		env.ledger.RegisterExternalTree(ctx, env.alice, tree),
		ErrUnauthorized,
	)
	require.ErrorIs(
		t,
		env.ledger.RegisterExternalTree(ctx, env.admin, address.Location{}),
		ErrInvalidTree,
	)
	require.NoError(t, env.ledger.RegisterExternalTree(ctx, env.admin, tree))
	pc, err := env.ledger.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExternalTree{Registered: true, Tree: tree}, pc.ExternalTree)
	assert.Equal(t, EventTypeMerkleTreeSetup, env.events.last().Type)
}

func TestVerifyAttestation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	params := helloParams()
	_, err := env.ledger.CreateAttestation(ctx, env.alice, params)
	require.NoError(t, err)

	err = env.ledger.VerifyAttestation(ctx, env.alice, params.ContentHash)
	require.ErrorIs(t, err, ErrUnauthorized)

	env.clock.now += 100
	verifiedAt := env.clock.now
	require.NoError(
		t,
		env.ledger.VerifyAttestation(ctx, env.admin, params.ContentHash),
	)
	att, err := env.ledger.Attestation(ctx, params.ContentHash)
	require.NoError(t, err)
	assert.Equal(
		t,
		Verification{Verified: true, By: env.admin, At: verifiedAt},
		att.Verification,
	)
	data, ok := env.events.last().Data.(AttestationVerifiedEvent)
	require.True(t, ok)
	assert.Equal(t, env.admin, data.VerifiedBy)

	env.clock.now += 100
	err = env.ledger.VerifyAttestation(ctx, env.admin, params.ContentHash)
	require.ErrorIs(t, err, ErrAlreadyVerified)
	require.ErrorIs(t, err, ErrState)
	att, err = env.ledger.Attestation(ctx, params.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, verifiedAt, att.Verification.At)

	err = env.ledger.VerifyAttestation(
		ctx,
		env.admin,
		HashContent([]byte("missing")),
	)
	require.ErrorIs(t, err, ErrAttestationNotFound)
}

func TestUpdateMetadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	params := helloParams()
	_, err := env.ledger.CreateAttestation(ctx, env.alice, params)
	require.NoError(t, err)

	err = env.ledger.UpdateMetadata(ctx, env.bob, params.ContentHash, "ipfs://x")
	require.ErrorIs(t, err, ErrUnauthorized)
	err = env.ledger.UpdateMetadata(
		ctx,
		env.alice,
		params.ContentHash,
		strings.Repeat("u", 201),
	)
	require.ErrorIs(t, err, ErrUriTooLong)

	require.NoError(
		t,
		env.ledger.UpdateMetadata(ctx, env.alice, params.ContentHash, "ipfs://new"),
	)
	att, err := env.ledger.Attestation(ctx, params.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://new", att.MetadataURI)
	data, ok := env.events.last().Data.(MetadataUpdatedEvent)
	require.True(t, ok)
	assert.Equal(t, "ipfs://Qm...", data.OldURI)
	assert.Equal(t, "ipfs://new", data.NewURI)
}

func TestLinkCertificate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	params := helloParams()
	_, err := env.ledger.CreateAttestation(ctx, env.alice, params)
	require.NoError(t, err)
	asset := address.Derive(address.NamespaceAsset, []byte("external"))

	err = env.ledger.LinkCertificate(ctx, env.bob, params.ContentHash, asset)
	require.ErrorIs(t, err, ErrUnauthorized)
	err = env.ledger.LinkCertificate(
		ctx,
		env.alice,
		params.ContentHash,
		address.Location{},
	)
	require.ErrorIs(t, err, ErrInvalidAssetID)

	require.NoError(
		t,
		env.ledger.LinkCertificate(ctx, env.alice, params.ContentHash, asset),
	)
	att, err := env.ledger.Attestation(ctx, params.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, CertificateLink{Linked: true, AssetID: asset}, att.Certificate)

	other := address.Derive(address.NamespaceAsset, []byte("other"))
	err = env.ledger.LinkCertificate(ctx, env.alice, params.ContentHash, other)
	require.ErrorIs(t, err, ErrCertificateAlreadyLinked)
	_, err = env.ledger.MintCertificate(
		ctx,
		env.alice,
		params.ContentHash,
		MintParams{Name: "cert"},
	)
	require.ErrorIs(t, err, ErrCertificateAlreadyLinked)
}

func TestCloseAttestation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	params := helloParams()
	_, err := env.ledger.CreateAttestation(ctx, env.alice, params)
	require.NoError(t, err)
	_, err = env.ledger.CompressAttestation(ctx, env.alice, params.ContentHash)
	require.NoError(t, err)

	err = env.ledger.CloseAttestation(ctx, env.bob, params.ContentHash)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.NoError(
		t,
		env.ledger.CloseAttestation(ctx, env.alice, params.ContentHash),
	)
	data, ok := env.events.last().Data.(AttestationClosedEvent)
	require.True(t, ok)
	assert.Equal(t, env.alice, data.Creator)
	assert.True(t, data.Compression.Compressed)
	assert.False(t, data.Certificate.Linked)

	_, err = env.ledger.Attestation(ctx, params.ContentHash)
	require.ErrorIs(t, err, ErrAttestationNotFound)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(
		t,
		env.ledger.VerifyAttestation(ctx, env.admin, params.ContentHash),
		ErrNotFound,
	)
	require.ErrorIs(
		t,
		env.ledger.UpdateMetadata(ctx, env.alice, params.ContentHash, "x"),
		ErrNotFound,
	)
	require.ErrorIs(
		t,
		env.ledger.CloseAttestation(ctx, env.alice, params.ContentHash),
		ErrNotFound,
	)
	count, err := env.ledger.CountAttestations(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// The projection outlives the record
	_, err = env.db.Projection(CompressedLocation(params.ContentHash), nil)
	require.NoError(t, err)

	pc, err := env.ledger.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pc.TotalAttestations)

	_, err = env.ledger.CreateAttestation(ctx, env.bob, params)
	require.NoError(t, err)
	pc, err = env.ledger.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), pc.TotalAttestations)
	att, err := env.ledger.Attestation(ctx, params.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, env.bob, att.Creator)
	assert.False(t, att.Compression.Compressed)
}

func TestCloseAttestationThenMintAgain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	params := helloParams()
	mint := MintParams{Name: "Attestation", Symbol: "ATST", URI: "ipfs://c"}
	_, err := env.ledger.CreateAttestation(ctx, env.alice, params)
	require.NoError(t, err)
	first, err := env.ledger.MintCertificate(ctx, env.alice, params.ContentHash, mint)
	require.NoError(t, err)
	require.NoError(
		t,
		env.ledger.CloseAttestation(ctx, env.alice, params.ContentHash),
	)
	data, ok := env.events.last().Data.(AttestationClosedEvent)
	require.True(t, ok)
	assert.Equal(t, CertificateLink{Linked: true, AssetID: first}, data.Certificate)

	_, err = env.ledger.CreateAttestation(ctx, env.alice, params)
	require.NoError(t, err)
	second, err := env.ledger.MintCertificate(ctx, env.alice, params.ContentHash, mint)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	att, err := env.ledger.Attestation(ctx, params.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, CertificateLink{Linked: true, AssetID: second}, att.Certificate)
	issuer := certificate.NewLocalIssuer(env.db, nil)
	for _, assetID := range []address.Location{first, second} {
		cert, err := issuer.Certificate(assetID)
		require.NoError(t, err)
		assert.NotNil(t, cert)
	}
	pc, err := env.ledger.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), pc.TotalCertificates)
}

func TestMintCertificateClassification(t *testing.T) {
	testDefs := []struct {
		probability    uint16
		classification string
	}{
		{probability: 9000, classification: ClassAiGenerated},
		{probability: 1000, classification: ClassHumanCreated},
		{probability: 5000, classification: ClassMixedUncertain},
		{probability: 7000, classification: ClassAiGenerated},
		{probability: 3000, classification: ClassHumanCreated},
	}
	env := newTestEnv(t)
	ctx := context.Background()
	issuer := certificate.NewLocalIssuer(env.db, nil)
	for i, testDef := range testDefs {
		params := paramsFor(
			"content-"+testDef.classification+string(rune('a'+i)),
			testDef.probability,
		)
		_, err := env.ledger.CreateAttestation(ctx, env.alice, params)
		require.NoError(t, err)
		assetID, err := env.ledger.MintCertificate(
			ctx,
			env.alice,
			params.ContentHash,
			MintParams{Name: "Attestation", Symbol: "ATST", URI: "ipfs://c"},
		)
		require.NoError(t, err)
		assert.Equal(
			t,
			address.Derive(
				address.NamespaceCertificate,
				params.ContentHash[:],
				address.Nonce(uint64(i)),
			),
			assetID,
		)

		evt := env.events.last()
		require.Equal(t, EventTypeCertificateMinted, evt.Type)
		data, ok := evt.Data.(CertificateMintedEvent)
		require.True(t, ok)
		assert.Equal(t, testDef.classification, data.Classification)
		assert.Equal(t, assetID, data.AssetID)

		cert, err := issuer.Certificate(assetID)
		require.NoError(t, err)
		require.NotNil(t, cert)
		assert.Equal(t, testDef.classification, cert.Classification)
		req, err := certificate.DecodeRequest(cert)
		require.NoError(t, err)
		assert.Equal(t, env.alice, req.LeafOwner)
		assert.Equal(t, env.alice, req.LeafDelegate)
		assert.Equal(t, certificate.TokenStandardNonFungible, req.Metadata.TokenStandard)
		assert.False(t, req.Metadata.IsMutable)
		assert.Equal(t, uint16(0), req.Metadata.SellerFeeBasisPoints)
		require.Len(t, req.Metadata.Creators, 1)
		assert.Equal(t, uint8(100), req.Metadata.Creators[0].Share)
		assert.False(t, req.Metadata.Creators[0].Verified)

		att, err := env.ledger.Attestation(ctx, params.ContentHash)
		require.NoError(t, err)
		assert.Equal(t, CertificateLink{Linked: true, AssetID: assetID}, att.Certificate)
	}
	pc, err := env.ledger.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(testDefs)), pc.TotalCertificates)
}

func TestMintCertificateExternalTree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tree := address.Derive(address.NamespaceConfig, []byte("tree"))
	require.NoError(t, env.ledger.RegisterExternalTree(ctx, env.admin, tree))
	for i := range uint64(2) {
		params := paramsFor("tree-content-"+string(rune('a'+i)), 9000)
		_, err := env.ledger.CreateAttestation(ctx, env.alice, params)
		require.NoError(t, err)
		assetID, err := env.ledger.MintCertificate(
			ctx,
			env.alice,
			params.ContentHash,
			MintParams{Name: "cNFT"},
		)
		require.NoError(t, err)
		assert.Equal(
			t,
			address.Derive(address.NamespaceAsset, tree[:], address.Nonce(i)),
			assetID,
		)
		evt := env.events.last()
		require.Equal(t, EventTypeCnftCertificateMinted, evt.Type)
		data, ok := evt.Data.(CnftCertificateMintedEvent)
		require.True(t, ok)
		assert.Equal(t, tree, data.Tree)
		assert.Equal(t, i, data.Nonce)
		assert.Equal(t, ClassAiGenerated, data.Classification)
	}
}

func TestMintCertificateRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	params := helloParams()
	_, err := env.ledger.CreateAttestation(ctx, env.alice, params)
	require.NoError(t, err)

	_, err = env.ledger.MintCertificate(ctx, env.bob, params.ContentHash, MintParams{})
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.ledger.MintCertificate(
		ctx,
		env.alice,
		params.ContentHash,
		MintParams{Name: strings.Repeat("n", 33)},
	)
	require.ErrorIs(t, err, ErrNameTooLong)
	_, err = env.ledger.MintCertificate(
		ctx,
		env.alice,
		params.ContentHash,
		MintParams{Symbol: strings.Repeat("s", 11)},
	)
	require.ErrorIs(t, err, ErrSymbolTooLong)
	_, err = env.ledger.MintCertificate(
		ctx,
		env.alice,
		params.ContentHash,
		MintParams{URI: strings.Repeat("u", 201)},
	)
	require.ErrorIs(t, err, ErrUriTooLong)

	require.NoError(t, env.ledger.SetPaused(ctx, env.admin, true))
	_, err = env.ledger.MintCertificate(ctx, env.alice, params.ContentHash, MintParams{})
	require.ErrorIs(t, err, ErrProgramPaused)
}

func TestMintCertificateIssuerFailure(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Issuer = failingIssuer{}
	})
	ctx := context.Background()
	params := helloParams()
	_, err := env.ledger.CreateAttestation(ctx, env.alice, params)
	require.NoError(t, err)
	before, err := env.ledger.AttestationRaw(ctx, params.ContentHash)
	require.NoError(t, err)
	eventCount := len(env.events.types())

	_, err = env.ledger.MintCertificate(ctx, env.alice, params.ContentHash, MintParams{})
	require.Error(t, err)
	assert.Equal(t, "internal", ErrorKind(err))

	after, err := env.ledger.AttestationRaw(ctx, params.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	pc, err := env.ledger.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), pc.TotalCertificates)
	assert.Len(t, env.events.types(), eventCount)
}

func TestMintCertificateAbortDiscardsCertificate(t *testing.T) {
	var issuer *abortingIssuer
	env := newTestEnv(t, func(cfg *Config) {
		issuer = &abortingIssuer{
			LocalIssuer: certificate.NewLocalIssuer(cfg.Database, nil),
			abort:       true,
		}
		cfg.Issuer = issuer
	})
	ctx := context.Background()
	params := helloParams()
	_, err := env.ledger.CreateAttestation(ctx, env.alice, params)
	require.NoError(t, err)
	expected := address.Derive(
		address.NamespaceCertificate,
		params.ContentHash[:],
		address.Nonce(0),
	)

	_, err = env.ledger.MintCertificate(ctx, env.alice, params.ContentHash, MintParams{})
	require.Error(t, err)
	cert, err := issuer.Certificate(expected)
	require.NoError(t, err)
	assert.Nil(t, cert)
	att, err := env.ledger.Attestation(ctx, params.ContentHash)
	require.NoError(t, err)
	assert.False(t, att.Certificate.Linked)

	issuer.abort = false
	assetID, err := env.ledger.MintCertificate(ctx, env.alice, params.ContentHash, MintParams{})
	require.NoError(t, err)
	assert.Equal(t, expected, assetID)
	cert, err = issuer.Certificate(expected)
	require.NoError(t, err)
	assert.NotNil(t, cert)
}

func TestCompressAttestation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	params := helloParams()
	_, err := env.ledger.CreateAttestation(ctx, env.alice, params)
	require.NoError(t, err)
	require.NoError(
		t,
		env.ledger.VerifyAttestation(ctx, env.admin, params.ContentHash),
	)

	_, err = env.ledger.CompressAttestation(ctx, env.bob, params.ContentHash)
	require.ErrorIs(t, err, ErrUnauthorized)

	loc, err := env.ledger.CompressAttestation(ctx, env.alice, params.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, CompressedLocation(params.ContentHash), loc)
	att, err := env.ledger.Attestation(ctx, params.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, Compression{Compressed: true, Address: loc}, att.Compression)

	compressor := compression.NewBlobCompressor(env.db, compression.CodecZstd, nil)
	proj, err := compressor.Load(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, [32]byte(params.ContentHash), proj.ContentHash)
	assert.Equal(t, params.AiProbability, proj.AiProbability)
	assert.Equal(t, ContentTypeHash(params.ContentType), proj.ContentTypeHash)
	assert.Equal(t, env.alice, proj.Creator)
	assert.True(t, proj.Verified)
	assert.False(t, proj.Certified)

	_, err = env.ledger.CompressAttestation(ctx, env.alice, params.ContentHash)
	require.ErrorIs(t, err, ErrAlreadyCompressed)
}

func TestCompressAttestationFailure(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Compressor = failingCompressor{}
	})
	ctx := context.Background()
	params := helloParams()
	_, err := env.ledger.CreateAttestation(ctx, env.alice, params)
	require.NoError(t, err)
	_, err = env.ledger.CompressAttestation(ctx, env.alice, params.ContentHash)
	require.Error(t, err)
	att, err := env.ledger.Attestation(ctx, params.ContentHash)
	require.NoError(t, err)
	assert.False(t, att.Compression.Compressed)
}

func TestContentTypeHash(t *testing.T) {
	assert.Equal(t, ContentTypeHash("image/png"), ContentTypeHash("image/png"))
	assert.NotEqual(t, ContentTypeHash("image/png"), ContentTypeHash("image/jpeg"))
}

func TestListAttestations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	var hashes []ContentHash
	for i, creator := range []address.Identity{env.alice, env.alice, env.bob} {
		env.clock.now++
		params := paramsFor("list-"+string(rune('a'+i)), 5000)
		_, err := env.ledger.CreateAttestation(ctx, creator, params)
		require.NoError(t, err)
		hashes = append(hashes, params.ContentHash)
	}
	require.NoError(t, env.ledger.VerifyAttestation(ctx, env.admin, hashes[1]))

	all, err := env.ledger.ListAttestations(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, hashes[0], all[0].ContentHash)
	assert.Equal(t, hashes[2], all[2].ContentHash)

	desc, err := env.ledger.ListAttestations(ctx, ListFilter{Descending: true})
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, hashes[2], desc[0].ContentHash)

	byAlice, err := env.ledger.ListAttestations(ctx, ListFilter{Creator: env.alice})
	require.NoError(t, err)
	assert.Len(t, byAlice, 2)

	verified := true
	onlyVerified, err := env.ledger.ListAttestations(
		ctx,
		ListFilter{Verified: &verified},
	)
	require.NoError(t, err)
	require.Len(t, onlyVerified, 1)
	assert.Equal(t, hashes[1], onlyVerified[0].ContentHash)

	page, err := env.ledger.ListAttestations(ctx, ListFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, hashes[1], page[0].ContentHash)

	count, err := env.ledger.CountAttestations(ctx, ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestTotalAttestationsMonotonic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	var last uint64
	for i := range 4 {
		params := paramsFor("mono-"+string(rune('a'+i)), 100)
		_, err := env.ledger.CreateAttestation(ctx, env.alice, params)
		require.NoError(t, err)
		if i%2 == 1 {
			require.NoError(
				t,
				env.ledger.CloseAttestation(ctx, env.alice, params.ContentHash),
			)
		}
		pc, err := env.ledger.Config(ctx)
		require.NoError(t, err)
		assert.Greater(t, pc.TotalAttestations, last)
		last = pc.TotalAttestations
	}
	assert.Equal(t, uint64(4), last)
}

func TestOperationMetrics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_ = env.ledger.SetPaused(ctx, env.alice, true)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(
			env.ledger.metrics.operations.WithLabelValues(
				"set_paused",
				"authorization",
			),
		),
		0,
	)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(
			env.ledger.metrics.operations.WithLabelValues("initialize", "ok"),
		),
		0,
	)
	_, err := env.ledger.CreateAttestation(ctx, env.alice, helloParams())
	require.NoError(t, err)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(env.ledger.metrics.totalAttestations),
		0,
	)
	_, err = env.ledger.CreateAttestation(ctx, env.alice, helloParams())
	require.ErrorIs(t, err, ErrAttestationExists)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(env.ledger.metrics.totalAttestations),
		0,
	)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, "validation", ErrorKind(ErrInvalidProbability))
	assert.Equal(t, "authorization", ErrorKind(ErrUnauthorized))
	assert.Equal(t, "state", ErrorKind(ErrAlreadyVerified))
	assert.Equal(t, "resource", ErrorKind(ErrOverflow))
	assert.Equal(t, "not_found", ErrorKind(ErrAttestationNotFound))
	assert.Equal(t, "internal", ErrorKind(errors.New("boom")))
	assert.False(t, errors.Is(ErrAlreadyVerified, ErrValidation))
	assert.False(t, errors.Is(ErrAlreadyVerified, ErrAlreadyCompressed))
}

func TestCheckedIncrement(t *testing.T) {
	v, err := checkedIncrement(41)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)
	_, err = checkedIncrement(^uint64(0))
	require.ErrorIs(t, err, ErrOverflow)
}
