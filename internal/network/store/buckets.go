package store

import (
	bolt "go.etcd.io/bbolt"
)

const schemaVersion = "v1"

var (
	bucketKeyVersion = []byte(schemaVersion)

	bucketKeySandbox  = []byte("sandbox")
	bucketKeyEndpoint = []byte("endpoint")
)

// Below is the current database schema. This should be updated any time the schema is
// changed or updated. The version should be incremented if breaking changes are made.
//  └──v1                                  - Schema version bucket
//     └──sandbox                          - Sandbox bucket
//        └──<sandbox id>                  - One bucket per sandbox
//           └──endpoint                   - Endpoint bucket
//              └──ifname : <json>         - Saved endpoint state for the guest interface

// taken from containerd/containerd/metadata/buckets.go
func getBucket(tx *bolt.Tx, keys ...[]byte) *bolt.Bucket {
	bkt := tx.Bucket(keys[0])

	for _, key := range keys[1:] {
		if bkt == nil {
			break
		}
		bkt = bkt.Bucket(key)
	}

	return bkt
}

// taken from containerd/containerd/metadata/buckets.go
func createBucketIfNotExists(tx *bolt.Tx, keys ...[]byte) (*bolt.Bucket, error) {
	bkt, err := tx.CreateBucketIfNotExists(keys[0])
	if err != nil {
		return nil, err
	}

	for _, key := range keys[1:] {
		bkt, err = bkt.CreateBucketIfNotExists(key)
		if err != nil {
			return nil, err
		}
	}

	return bkt, nil
}

func createEndpointBucket(tx *bolt.Tx, sandboxID string) (*bolt.Bucket, error) {
	return createBucketIfNotExists(tx, bucketKeyVersion, bucketKeySandbox, []byte(sandboxID), bucketKeyEndpoint)
}

func getEndpointBucket(tx *bolt.Tx, sandboxID string) *bolt.Bucket {
	return getBucket(tx, bucketKeyVersion, bucketKeySandbox, []byte(sandboxID), bucketKeyEndpoint)
}

func getSandboxesBucket(tx *bolt.Tx) *bolt.Bucket {
	return getBucket(tx, bucketKeyVersion, bucketKeySandbox)
}
