package encryption

import (
	"bytes"
	"context"
	"testing"
)

func TestLocalKeyManager(t *testing.T) {
	ctx := context.Background()
	var key [32]byte
	copy(key[:], []byte("12345678123456781234567812345678"))
	manager := NewLocalKeyManager(&key)
	for i := 0; i < 100; i++ {
		dataKeyPlainText, dataKeyEncrypted, err := manager.GenerateDataKey(ctx)
		if err != nil {
			t.Errorf("GenerateDataKey(): %s", err)
		}
		dataKeyPlainText2, err := manager.DecryptDataKey(ctx, dataKeyEncrypted)
		if err != nil {
			t.Errorf("DecryptDataKey(): %s", err)
		}
		if !bytes.Equal(dataKeyPlainText[:], dataKeyPlainText2[:]) {
			t.Errorf("plaintexts don't match")
		}
	}
}

func TestDeriveLocalMasterKey(t *testing.T) {
	key1, err := DeriveLocalMasterKey([]byte("correct horse battery staple"), nil)
	if err != nil {
		t.Fatalf("DeriveLocalMasterKey(): %s", err)
	}
	key2, err := DeriveLocalMasterKey([]byte("correct horse battery staple"), nil)
	if err != nil {
		t.Fatalf("DeriveLocalMasterKey(): %s", err)
	}
	if !bytes.Equal(key1[:], key2[:]) {
		t.Errorf("derivation is not deterministic")
	}
	key3, err := DeriveLocalMasterKey([]byte("correct horse battery staple"), []byte("salt"))
	if err != nil {
		t.Fatalf("DeriveLocalMasterKey(): %s", err)
	}
	if bytes.Equal(key1[:], key3[:]) {
		t.Errorf("salt did not change the derived key")
	}
	if _, err := DeriveLocalMasterKey(nil, nil); err == nil {
		t.Errorf("expected an error for empty secret material")
	}
}
