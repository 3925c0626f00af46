// Package registry announces the process's listeners in etcd.
//
// Layout:
//
//	Key:   /hello-dual/{ServiceName}/{Addr}
//	Value: JSON-encoded ServiceInstance
//
// Every key is attached to a TTL lease kept alive in the background: if the
// process dies the lease expires and the entry disappears on its own.
package registry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const keyPrefix = "/hello-dual/"

// DefaultDialTimeout bounds the initial connection to etcd.
const DefaultDialTimeout = 5 * time.Second

// EtcdRegistry implements Registry on etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client
	kv     clientv3.KV
	lease  clientv3.Lease

	mu         sync.Mutex
	keepAlives map[string]context.CancelFunc // key → stops its lease renewal
}

var _ Registry = (*EtcdRegistry)(nil)

// NewEtcdRegistry connects to the given endpoints.
func NewEtcdRegistry(endpoints []string, dialTimeout time.Duration) (*EtcdRegistry, error) {
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{
		client:     c,
		kv:         c.KV,
		lease:      c.Lease,
		keepAlives: make(map[string]context.CancelFunc),
	}, nil
}

func instanceKey(serviceName, addr string) string {
	return keyPrefix + serviceName + "/" + addr
}

// Register stores instance under a lease of ttl seconds.
//
// Flow:
//  1. Grant a lease with the given TTL
//  2. Put the JSON-encoded instance with the lease attached
//  3. Start KeepAlive so the lease is renewed until Deregister or Close
//
// If step 2 or 3 fails the lease is revoked, so nothing is left behind. ctx
// bounds the registration round trips only; renewal runs on its own context.
func (r *EtcdRegistry) Register(ctx context.Context, serviceName string, instance ServiceInstance, ttl int64) error {
	val, err := json.Marshal(instance)
	if err != nil {
		return err
	}

	lease, err := r.lease.Grant(ctx, ttl)
	if err != nil {
		return err
	}

	key := instanceKey(serviceName, instance.Addr)
	if _, err := r.kv.Put(ctx, key, string(val), clientv3.WithLease(lease.ID)); err != nil {
		_, _ = r.lease.Revoke(ctx, lease.ID)
		return err
	}

	keepCtx, cancel := context.WithCancel(context.Background())
	ch, err := r.lease.KeepAlive(keepCtx, lease.ID)
	if err != nil {
		cancel()
		_, _ = r.lease.Revoke(ctx, lease.ID)
		return err
	}
	go func() {
		for range ch {
		}
	}()

	r.mu.Lock()
	if prev, ok := r.keepAlives[key]; ok {
		prev()
	}
	r.keepAlives[key] = cancel
	r.mu.Unlock()
	return nil
}

// Deregister stops renewing the instance's lease and deletes its key.
func (r *EtcdRegistry) Deregister(ctx context.Context, serviceName string, addr string) error {
	key := instanceKey(serviceName, addr)

	r.mu.Lock()
	if cancel, ok := r.keepAlives[key]; ok {
		cancel()
		delete(r.keepAlives, key)
	}
	r.mu.Unlock()

	_, err := r.kv.Delete(ctx, key)
	return err
}

// Discover returns every instance currently announced under serviceName.
func (r *EtcdRegistry) Discover(ctx context.Context, serviceName string) ([]ServiceInstance, error) {
	resp, err := r.kv.Get(ctx, keyPrefix+serviceName+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	instances := make([]ServiceInstance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var instance ServiceInstance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			continue // skip malformed entries
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// Close stops all lease renewals and closes the etcd client. Announced keys
// expire once their TTL runs out.
func (r *EtcdRegistry) Close() error {
	r.mu.Lock()
	for key, cancel := range r.keepAlives {
		cancel()
		delete(r.keepAlives, key)
	}
	r.mu.Unlock()
	return r.client.Close()
}
