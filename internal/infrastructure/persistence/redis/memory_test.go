package redis

import (
	"context"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// memoryRedis answers the commands the projections issue from process memory.
// It is installed as a go-redis hook, so commands never reach the network.
type memoryRedis struct {
	mu     sync.Mutex
	zsets  map[string]map[string]float64
	hashes map[string]map[string]string
	sets   map[string]map[string]struct{}
}

func newMemoryClient() (*redis.Client, *memoryRedis) {
	m := &memoryRedis{
		zsets:  make(map[string]map[string]float64),
		hashes: make(map[string]map[string]string),
		sets:   make(map[string]map[string]struct{}),
	}
	c := redis.NewClient(&redis.Options{Addr: "memory:0"})
	c.AddHook(m)
	return c, m
}

func (m *memoryRedis) DialHook(redis.DialHook) redis.DialHook {
	return func(context.Context, string, string) (net.Conn, error) {
		return nil, fmt.Errorf("memoryRedis does not dial")
	}
}

func (m *memoryRedis) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.apply(cmd)
	}
}

func (m *memoryRedis) ProcessPipelineHook(redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(_ context.Context, cmds []redis.Cmder) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, cmd := range cmds {
			if err := m.apply(cmd); err != nil {
				return err
			}
		}
		return nil
	}
}

func (m *memoryRedis) score(key, member string) (float64, bool) {
	v, ok := m.zsets[key][member]
	return v, ok
}

func (m *memoryRedis) apply(cmd redis.Cmder) error {
	args := make([]string, len(cmd.Args()))
	for i, a := range cmd.Args() {
		if b, ok := a.([]byte); ok {
			args[i] = string(b)
		} else {
			args[i] = fmt.Sprint(a)
		}
	}
	key := ""
	if len(args) > 1 {
		key = args[1]
	}

	switch cmd.Name() {
	case "multi", "exec", "expire":
	case "zadd":
		i, gt := 2, false
		for ; i < len(args); i++ {
			if _, err := strconv.ParseFloat(args[i], 64); err == nil {
				break
			}
			gt = gt || strings.EqualFold(args[i], "gt")
		}
		if m.zsets[key] == nil {
			m.zsets[key] = make(map[string]float64)
		}
		for ; i+1 < len(args); i += 2 {
			s, _ := strconv.ParseFloat(args[i], 64)
			if old, ok := m.zsets[key][args[i+1]]; ok && gt && s <= old {
				continue
			}
			m.zsets[key][args[i+1]] = s
		}
	case "zrangebyscore", "zrevrange":
		zs := make([]redis.Z, 0, len(m.zsets[key]))
		for member, s := range m.zsets[key] {
			zs = append(zs, redis.Z{Member: member, Score: s})
		}
		slices.SortFunc(zs, func(a, b redis.Z) int {
			if a.Score != b.Score {
				if a.Score < b.Score {
					return -1
				}
				return 1
			}
			return strings.Compare(a.Member.(string), b.Member.(string))
		})
		if cmd.Name() == "zrangebyscore" {
			lo, _ := strconv.ParseFloat(args[2], 64)
			hi, _ := strconv.ParseFloat(args[3], 64)
			zs = slices.DeleteFunc(zs, func(z redis.Z) bool { return z.Score < lo || z.Score > hi })
		} else {
			slices.Reverse(zs)
			start, _ := strconv.Atoi(args[2])
			stop, _ := strconv.Atoi(args[3])
			zs = zs[min(start, len(zs)):min(stop+1, len(zs))]
		}
		cmd.(*redis.ZSliceCmd).SetVal(zs)
	case "zmscore":
		out := make([]float64, 0, len(args)-2)
		for _, member := range args[2:] {
			s, _ := m.score(key, member)
			out = append(out, s)
		}
		cmd.(*redis.FloatSliceCmd).SetVal(out)
	case "zscore":
		s, ok := m.score(key, args[2])
		if !ok {
			return redis.Nil
		}
		cmd.(*redis.FloatCmd).SetVal(s)
	case "hset":
		if m.hashes[key] == nil {
			m.hashes[key] = make(map[string]string)
		}
		for i := 2; i+1 < len(args); i += 2 {
			m.hashes[key][args[i]] = args[i+1]
		}
	case "hmget":
		out := make([]interface{}, 0, len(args)-2)
		for _, f := range args[2:] {
			if v, ok := m.hashes[key][f]; ok {
				out = append(out, v)
			} else {
				out = append(out, nil)
			}
		}
		cmd.(*redis.SliceCmd).SetVal(out)
	case "sadd":
		if m.sets[key] == nil {
			m.sets[key] = make(map[string]struct{})
		}
		for _, v := range args[2:] {
			m.sets[key][v] = struct{}{}
		}
	case "smembers":
		out := make([]string, 0, len(m.sets[key]))
		for v := range m.sets[key] {
			out = append(out, v)
		}
		cmd.(*redis.StringSliceCmd).SetVal(out)
	case "del":
		for _, k := range args[1:] {
			delete(m.zsets, k)
			delete(m.hashes, k)
			delete(m.sets, k)
		}
	default:
		return fmt.Errorf("memoryRedis: unsupported command %q", cmd.Name())
	}
	return nil
}
