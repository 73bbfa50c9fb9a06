package audit

import (
	"context"
	"sync"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"

	ourcrypto "github.com/agentrust/trustcore/crypto"
	trusterrors "github.com/agentrust/trustcore/errors"
	"github.com/agentrust/trustcore/kms"
	"github.com/agentrust/trustcore/log"
)

// Log is one hash-chained, KMS-signed audit log. A single Log instance
// owns a single verification_method for its lifetime (spec §4.8
// Concurrency: single writer per log instance); key rotation means
// starting a new log, not reusing this one across keys.
type Log struct {
	storage  Storage
	provider kms.Provider
	keyRef   kms.KeyRef
	vmID     string
	alg      ourcrypto.Algorithm
	pubKey   []byte
	clock    clock.Clock
	logger   log.Logger
	metrics  *Metrics

	writeMu sync.Mutex
}

// NewLog builds a Log that signs every appended entry under keyRef,
// reporting verificationMethod as the entry's verification_method
// (spec §3: the value a verifier resolves to a DID Document key).
func NewLog(ctx context.Context, store Storage, provider kms.Provider, keyRef kms.KeyRef, verificationMethod string, clk clock.Clock, logger log.Logger, metrics *Metrics) (*Log, error) {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = log.NewNop()
	}
	pub, err := provider.PublicKey(ctx, keyRef)
	if err != nil {
		return nil, err
	}
	return &Log{
		storage:  store,
		provider: provider,
		keyRef:   keyRef,
		vmID:     verificationMethod,
		alg:      pub.Algorithm,
		pubKey:   pub.KeyMaterial,
		clock:    clk,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Append computes payload_hash, chains prev_hash off the current tail,
// signs the entry, persists it, and returns the stored entry (spec
// §4.8 append).
func (l *Log) Append(ctx context.Context, actor string, action Action, subject string, payload interface{}) (*Entry, error) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	start := l.clock.Now()
	defer func() {
		l.metrics.observeAppend(l.clock.Now().Sub(start).Seconds())
	}()

	var seq uint64
	prevHash := genesisHash[:]
	tail, err := l.storage.Tail(ctx)
	if err != nil && !trusterrors.Is(err, trusterrors.NotFound) {
		return nil, err
	}
	if err == nil {
		seq = tail.Seq + 1
		ph, herr := tail.hash()
		if herr != nil {
			return nil, herr
		}
		prevHash = ph
	}

	pHash, err := payloadHash(payload)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		Seq:                seq,
		Timestamp:          l.clock.Now().UTC(),
		Actor:              actor,
		Action:             action,
		Subject:            subject,
		PayloadHash:        pHash,
		PrevHash:           prevHash,
		VerificationMethod: l.vmID,
	}

	signingInput, err := entry.hash()
	if err != nil {
		return nil, err
	}
	result, err := l.provider.Sign(ctx, l.keyRef, signingInput)
	if err != nil {
		return nil, err
	}
	entry.Signature = result.Signature

	if err := l.storage.Append(ctx, entry); err != nil {
		return nil, err
	}
	l.logger.Audit(string(action),
		zap.Uint64("seq", entry.Seq),
		zap.String("actor", actor),
		zap.String("subject", subject))
	return entry, nil
}

// Get returns the entry at seq.
func (l *Log) Get(ctx context.Context, seq uint64) (*Entry, error) {
	return l.storage.Get(ctx, seq)
}

// Range returns entries in [fromSeq, toSeq].
func (l *Log) Range(ctx context.Context, fromSeq, toSeq uint64) ([]*Entry, error) {
	return l.storage.Range(ctx, fromSeq, toSeq)
}

// ChainVerification is the result of VerifyChain.
type ChainVerification struct {
	Valid          bool
	FirstInvalidSeq *uint64
}

// VerifyChain checks sequence contiguity, prev_hash correctness, and
// signature validity for every entry in [fromSeq, toSeq] (spec §4.8).
func (l *Log) VerifyChain(ctx context.Context, fromSeq, toSeq uint64) (ChainVerification, error) {
	entries, err := l.storage.Range(ctx, fromSeq, toSeq)
	if err != nil {
		return ChainVerification{}, err
	}

	expectedPrevHash := genesisHash[:]
	if fromSeq > 0 {
		prior, err := l.storage.Get(ctx, fromSeq-1)
		if err != nil {
			return ChainVerification{}, err
		}
		expectedPrevHash, err = prior.hash()
		if err != nil {
			return ChainVerification{}, err
		}
	}

	for i, entry := range entries {
		wantSeq := fromSeq + uint64(i)
		if entry.Seq != wantSeq {
			seq := wantSeq
			return ChainVerification{Valid: false, FirstInvalidSeq: &seq}, nil
		}
		if !hashEqual(entry.PrevHash, expectedPrevHash) {
			seq := entry.Seq
			return ChainVerification{Valid: false, FirstInvalidSeq: &seq}, nil
		}
		signingInput, err := entry.hash()
		if err != nil {
			return ChainVerification{}, err
		}
		if entry.VerificationMethod != l.vmID || !ourcrypto.Verify(l.alg, l.pubKey, signingInput, entry.Signature) {
			seq := entry.Seq
			return ChainVerification{Valid: false, FirstInvalidSeq: &seq}, nil
		}
		expectedPrevHash = signingInput
	}
	return ChainVerification{Valid: true}, nil
}
