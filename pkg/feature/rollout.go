package feature

import "hash/fnv"

// RolloutBucket maps a (user, flag) pair to a stable bucket in [1,100].
// The bucket is derived from an FNV-1a 64-bit hash over the UTF-8 bytes of
// "{userID}:{flagKey}", so the same pair lands in the same bucket across
// processes, restarts and implementations. This is a versioned contract:
// changing the hash function would re-shuffle every live rollout.
func RolloutBucket(userID, flagKey string) int {
	h := fnv.New64a()
	h.Write([]byte(userID))
	h.Write([]byte{':'})
	h.Write([]byte(flagKey))
	return int(h.Sum64()%100) + 1
}
