package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/memledger/memledger/foundation/ledger/block"
	"github.com/memledger/memledger/foundation/ledger/signature"
)

// backupFile represents the serialized form of the ledger. The public
// key rides along so the chain can be verified independently.
type backupFile struct {
	Chain     []block.Block `json:"chain"`
	PublicKey string        `json:"public_key"`
}

// =============================================================================

// Backup serializes the full chain plus the exported public key. Writing
// the bytes to a file or object store is the caller's concern.
func (l *Ledger) Backup() ([]byte, error) {
	pem, err := l.signer.PublicKeyPEM()
	if err != nil {
		return nil, err
	}

	bf := backupFile{
		Chain:     l.RetrieveChain(),
		PublicKey: string(pem),
	}

	data, err := json.MarshalIndent(bf, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling backup: %w", err)
	}

	return data, nil
}

// Restore replaces the chain with the one in the backup after verifying
// every block's hash, linkage, and signature against the embedded public
// key. The embedded key is installed as trusted so restored blocks keep
// verifying; new blocks are signed with the ledger's own key.
func (l *Ledger) Restore(data []byte) error {
	var bf backupFile
	if err := json.Unmarshal(data, &bf); err != nil {
		return fmt.Errorf("unmarshaling backup: %w", err)
	}

	if len(bf.Chain) == 0 {
		return fmt.Errorf("backup contains no blocks")
	}

	publicKey, err := signature.ParsePublicKeyPEM([]byte(bf.PublicKey))
	if err != nil {
		return err
	}

	genesis := bf.Chain[0]
	if genesis.Index != 0 || genesis.PrevBlockHash != signature.ZeroHash {
		return fmt.Errorf("backup genesis block is malformed")
	}
	if genesis.Hash != genesis.ComputeHash() {
		return fmt.Errorf("backup genesis hash does not match recomputation")
	}

	for i := 1; i < len(bf.Chain); i++ {
		b := bf.Chain[i]

		if err := b.Validate(bf.Chain[i-1]); err != nil {
			return fmt.Errorf("backup block %d: %w", i, err)
		}

		if !signature.VerifyWithKey(publicKey, b.Hash, b.Signature) {
			return fmt.Errorf("backup block %d signature does not verify", i)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.chain = bf.Chain
	l.trustedKeys = append(l.trustedKeys, publicKey)

	// Rebuild the derived indices from the restored chain.
	l.temporalIndex = make(map[float64]uint64)
	l.embeddingIndex = make(map[string]uint64)
	for _, b := range l.chain {
		l.indexBlock(b)
	}

	return nil
}
