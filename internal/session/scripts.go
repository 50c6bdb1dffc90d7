package session

import goredis "github.com/redis/go-redis/v9"

// rateLimitScript applies the cooldown and sliding-window checks atomically.
//
// KEYS[1] = window zset (score and member carry the request time in ms)
// KEYS[2] = meta hash
// ARGV[1] = now in ms
// ARGV[2] = cooldown in ms
// ARGV[3] = per-minute limit
// ARGV[4] = per-hour limit
// ARGV[5] = key TTL in ms
// ARGV[6] = unique member suffix
//
// Returns {allowed, reason, retry_after_ms}.
var rateLimitScript = goredis.NewScript(`
local now = tonumber(ARGV[1])
local cooldown = tonumber(ARGV[2])
local per_minute = tonumber(ARGV[3])
local per_hour = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

redis.call('ZREMRANGEBYSCORE', KEYS[1], 0, now - 3600000)

local last = redis.call('HGET', KEYS[2], 'last_request_ms')
if last then
  local since = now - tonumber(last)
  if since < cooldown then
    return {0, 'cooldown', cooldown - since}
  end
end

local minute_count = redis.call('ZCOUNT', KEYS[1], now - 60000 + 1, '+inf')
if minute_count >= per_minute then
  local oldest = redis.call('ZRANGEBYSCORE', KEYS[1], now - 60000 + 1, '+inf', 'LIMIT', 0, 1)
  local retry = 0
  if oldest[1] then
    retry = tonumber(redis.call('ZSCORE', KEYS[1], oldest[1])) + 60000 - now
  end
  return {0, 'minute', retry}
end

local hour_count = redis.call('ZCARD', KEYS[1])
if hour_count >= per_hour then
  local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
  local retry = 0
  if oldest[2] then
    retry = tonumber(oldest[2]) + 3600000 - now
  end
  return {0, 'hour', retry}
end

redis.call('ZADD', KEYS[1], now, tostring(now) .. '-' .. ARGV[6])
redis.call('HSET', KEYS[2], 'last_request_ms', now)
redis.call('PEXPIRE', KEYS[1], ttl)
redis.call('PEXPIRE', KEYS[2], ttl)
return {1, '', 0}
`)
