// Package store persists saved endpoint states per sandbox in a bolt database.
package store

import (
	"context"
	"encoding/json"

	"github.com/containerd/errdefs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/sandbox-runtime/vmnet/internal/log"
	"github.com/sandbox-runtime/vmnet/internal/logfields"
	"github.com/sandbox-runtime/vmnet/internal/network/endpoint"
)

type StateStore struct {
	db *bolt.DB
}

func NewStateStore(database *bolt.DB) *StateStore {
	return &StateStore{
		db: database,
	}
}

func (s *StateStore) Close() error {
	return s.db.Close()
}

// Put saves state under the interface name of its populated variant,
// replacing any earlier state for that interface.
func (s *StateStore) Put(ctx context.Context, sandboxID string, state *endpoint.State) error {
	ifName := state.IfName()
	if sandboxID == "" || ifName == "" {
		return errors.Wrap(errdefs.ErrInvalidArgument, "endpoint state needs a sandbox id and an interface name")
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		bkt, err := createEndpointBucket(tx, sandboxID)
		if err != nil {
			return err
		}
		data, err := json.Marshal(state)
		if err != nil {
			return err
		}
		return bkt.Put([]byte(ifName), data)
	}); err != nil {
		return errors.Wrapf(err, "failed to save endpoint %s of sandbox %s", ifName, sandboxID)
	}

	log.G(ctx).WithFields(logrus.Fields{
		logfields.SandboxID: sandboxID,
		logfields.Interface: ifName,
	}).Debug("saved endpoint state")
	return nil
}

// Get returns the state saved for ifName, or an error wrapping
// errdefs.ErrNotFound.
func (s *StateStore) Get(ctx context.Context, sandboxID, ifName string) (*endpoint.State, error) {
	state := &endpoint.State{}
	if err := s.db.View(func(tx *bolt.Tx) error {
		bkt := getEndpointBucket(tx, sandboxID)
		if bkt == nil {
			return errors.Wrapf(errdefs.ErrNotFound, "sandbox %v", sandboxID)
		}
		data := bkt.Get([]byte(ifName))
		if data == nil {
			return errors.Wrapf(errdefs.ErrNotFound, "endpoint %v", ifName)
		}
		if err := json.Unmarshal(data, state); err != nil {
			return errors.Wrapf(err, "data is %v", string(data))
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return state, nil
}

// List returns every state saved for the sandbox, ordered by interface name.
func (s *StateStore) List(ctx context.Context, sandboxID string) (results []*endpoint.State, err error) {
	if err := s.db.View(func(tx *bolt.Tx) error {
		bkt := getEndpointBucket(tx, sandboxID)
		if bkt == nil {
			return errors.Wrapf(errdefs.ErrNotFound, "sandbox %v", sandboxID)
		}
		return bkt.ForEach(func(k, v []byte) error {
			state := &endpoint.State{}
			if err := json.Unmarshal(v, state); err != nil {
				return errors.Wrapf(err, "data is %v", string(v))
			}
			results = append(results, state)
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return results, nil
}

// Sandboxes returns the ids of all sandboxes with saved state.
func (s *StateStore) Sandboxes(ctx context.Context) (ids []string, err error) {
	if err := s.db.View(func(tx *bolt.Tx) error {
		bkt := getSandboxesBucket(tx)
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return ids, nil
}

// Delete removes the state saved for ifName. The sandbox bucket is dropped
// with its last endpoint.
func (s *StateStore) Delete(ctx context.Context, sandboxID, ifName string) error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := getEndpointBucket(tx, sandboxID)
		if bkt == nil {
			return errors.Wrapf(errdefs.ErrNotFound, "sandbox %v", sandboxID)
		}
		if bkt.Get([]byte(ifName)) == nil {
			return errors.Wrapf(errdefs.ErrNotFound, "endpoint %v", ifName)
		}
		if err := bkt.Delete([]byte(ifName)); err != nil {
			return err
		}
		if k, _ := bkt.Cursor().First(); k != nil {
			return nil
		}
		return getSandboxesBucket(tx).DeleteBucket([]byte(sandboxID))
	}); err != nil {
		return err
	}

	log.G(ctx).WithFields(logrus.Fields{
		logfields.SandboxID: sandboxID,
		logfields.Interface: ifName,
	}).Debug("deleted endpoint state")
	return nil
}
