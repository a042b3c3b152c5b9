package datapoint

import (
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/perma-web/wttp/internal/keyValStore"
	"github.com/perma-web/wttp/pkg/types"
)

// Balance returns the accumulated royalty credit of a publisher.
func (s *Store) Balance(account types.Account) (uint64, error) {
	var balance uint64
	err := s.kv.View(func(txn *badger.Txn) error {
		item, err := txn.Get(balanceKey(account))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if len(raw) != 8 {
			return fmt.Errorf("corrupt balance record for %s", account)
		}
		balance = binary.BigEndian.Uint64(raw)
		return nil
	})
	return balance, err
}

func (s *Store) creditBalanceTxn(txn *badger.Txn, account types.Account, amount uint64) error {
	key := balanceKey(account)

	var balance uint64
	item, err := txn.Get(key)
	if err == nil {
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if len(raw) != 8 {
			return fmt.Errorf("corrupt balance record for %s", account)
		}
		balance = binary.BigEndian.Uint64(raw)
	} else if err != badger.ErrKeyNotFound {
		return fmt.Errorf("error reading balance for %s: %w", account, err)
	}

	balance += amount
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, balance)

	if err := txn.Set(key, raw); err != nil {
		return fmt.Errorf("error crediting balance for %s: %w", account, err)
	}
	return nil
}

func balanceKey(account types.Account) []byte {
	return append(append([]byte{}, keyValStore.PrefixBalance...), account[:]...)
}
