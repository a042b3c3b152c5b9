// Package backup exports and restores the full key-value state of a site
// as an lzma-compressed record stream. The format is a magic line followed
// by length-prefixed key/value pairs; restore refuses a site that already
// holds data.
package backup

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz/lzma"

	"github.com/perma-web/wttp/internal/keyValStore"
)

var magic = []byte("WTTPSITE1\n")

type Manager struct {
	kv  *keyValStore.KeyValStore
	log *logrus.Logger
}

func NewManager(kv *keyValStore.KeyValStore, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{
		kv:  kv,
		log: log,
	}
}

// Backup streams every key-value pair of the site to w.
func (m *Manager) Backup(w io.Writer) error {
	if _, err := w.Write(magic); err != nil {
		return fmt.Errorf("error writing backup magic: %w", err)
	}

	lz, err := lzma.NewWriter(w)
	if err != nil {
		return fmt.Errorf("error starting lzma stream: %w", err)
	}

	var records uint64
	err = m.kv.IterateAll(func(key, value []byte) error {
		if err := writeRecord(lz, key); err != nil {
			return err
		}
		if err := writeRecord(lz, value); err != nil {
			return err
		}
		records++
		return nil
	})
	if err != nil {
		return fmt.Errorf("error exporting site state: %w", err)
	}

	if err := lz.Close(); err != nil {
		return fmt.Errorf("error closing lzma stream: %w", err)
	}

	m.log.WithFields(logrus.Fields{
		"records": records,
	}).Info("site backup written")
	return nil
}

// Restore loads a backup stream into an empty site.
func (m *Manager) Restore(r io.Reader) error {
	empty, err := m.kv.IsEmpty()
	if err != nil {
		return err
	}
	if !empty {
		return fmt.Errorf("restore refused: site already holds data")
	}

	head := make([]byte, len(magic))
	if _, err := io.ReadFull(r, head); err != nil {
		return fmt.Errorf("error reading backup magic: %w", err)
	}
	if !bytes.Equal(head, magic) {
		return fmt.Errorf("not a site backup stream")
	}

	lz, err := lzma.NewReader(r)
	if err != nil {
		return fmt.Errorf("error opening lzma stream: %w", err)
	}

	var records uint64
	for {
		key, err := readRecord(lz)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading backup key: %w", err)
		}
		value, err := readRecord(lz)
		if err != nil {
			return fmt.Errorf("error reading backup value: %w", err)
		}

		if err := m.kv.Write(key, value); err != nil {
			return err
		}
		records++
	}

	m.log.WithFields(logrus.Fields{
		"records": records,
	}).Info("site backup restored")
	return nil
}

func writeRecord(w io.Writer, data []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readRecord(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	data := make([]byte, binary.BigEndian.Uint32(lenBuf[:]))
	if _, err := io.ReadFull(r, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return data, nil
}
