package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// appendScript appends only while the tail is still the record the caller read
// (ARGV[4], empty for none) and no record shares the completion time.
var appendScript = redis.NewScript(`
local tail = redis.call('GET', KEYS[3]) or ''
if tail ~= ARGV[4] then
	return 0
end
if redis.call('HSETNX', KEYS[2], ARGV[1], ARGV[2]) == 0 then
	return 0
end
redis.call('RPUSH', KEYS[1], ARGV[3])
redis.call('SET', KEYS[3], ARGV[2])
return 1
`)

// AttemptLedger stores attempts as a Redis list per (quiz, user), oldest first:
//
//	RPUSH quiz:attempts:{pair}         {json}
//	HSET  quiz:attempt-stamps:{pair}   {completedAt} {attemptID}
//	SET   quiz:attempt-tail:{pair}     {attemptID}
//
// where {pair} is pairKey(quizID, userID). Records have no expiry. The tail
// check keeps the list ordered even when an attempt lock lease has expired.
type AttemptLedger struct {
	client *redis.Client
}

func NewAttemptLedger(client *redis.Client) *AttemptLedger {
	return &AttemptLedger{client: client}
}

func (l *AttemptLedger) LatestAttempt(ctx context.Context, userID, quizID string) (*domain.AttemptRecord, error) {
	raw, err := l.client.LIndex(ctx, "quiz:attempts:"+pairKey(quizID, userID), -1).Bytes()
	if isNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest attempt: %w", err)
	}
	var record domain.AttemptRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode attempt: %w", err)
	}
	return &record, nil
}

func (l *AttemptLedger) AppendAttempt(ctx context.Context, record domain.AttemptRecord, prev *domain.AttemptRecord) (domain.AttemptRecord, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("encode attempt: %w", err)
	}
	pair := pairKey(record.QuizID, record.UserID)
	keys := []string{"quiz:attempts:" + pair, "quiz:attempt-stamps:" + pair, "quiz:attempt-tail:" + pair}
	stamp := record.CompletedAt.UTC().Format(time.RFC3339Nano)
	expectedTail := ""
	if prev != nil {
		expectedTail = prev.ID
	}

	added, err := appendScript.Run(ctx, l.client, keys, stamp, record.ID, data, expectedTail).Int()
	if err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("append attempt: %w", err)
	}
	if added == 0 {
		return domain.AttemptRecord{}, domain.ErrAttemptConflict
	}
	return record, nil
}

func (l *AttemptLedger) ListAttempts(ctx context.Context, userID, quizID string) ([]domain.AttemptRecord, error) {
	raws, err := l.client.LRange(ctx, "quiz:attempts:"+pairKey(quizID, userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	records := make([]domain.AttemptRecord, 0, len(raws))
	for _, raw := range raws {
		var record domain.AttemptRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("decode attempt: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// pairKey length-prefixes the quiz id so ids containing ':' cannot collide.
func pairKey(quizID, userID string) string {
	return strconv.Itoa(len(quizID)) + ":" + quizID + ":" + userID
}
