package recordstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnakeKey(t *testing.T) {
	cases := map[string]string{
		"flatIds":         "flat_ids",
		"societyId":       "society_id",
		"occupancyStatus": "occupancy_status",
		"currentTenantId": "current_tenant_id",
		"id":              "id",
		"name":            "name",
		"address1":        "address1",
		"bhkType":         "bhk_type",
	}
	for camel, snake := range cases {
		assert.Equal(t, snake, snakeKey(camel))
		assert.Equal(t, camel, camelKey(snake))
	}
}

// TestKeyRoundTrip 本模块使用的全部字段名必须满足往返恒等
func TestKeyRoundTrip(t *testing.T) {
	keys := []string{
		"id", "email", "name", "phone", "role", "societyId", "flatIds", "status",
		"emergencyContact", "moveInDate", "createdAt", "updatedAt",
		"address", "totalFlats", "totalBuildings", "contactEmail", "contactPhone",
		"amenities", "settings", "maintenanceDay", "latePaymentPenalty",
		"visitorApprovalRequired",
		"buildingId", "flatNumber", "floor", "bhkType", "area", "ownerId",
		"currentTenantId", "occupancyStatus",
		"flatId", "userId", "type", "amount", "dueDate", "paidDate",
		"paymentMethod", "purpose", "entryTime", "exitTime",
		"category", "title", "description", "priority", "assignedTo", "resolvedAt",
	}
	for _, key := range keys {
		assert.Equal(t, key, camelKey(snakeKey(key)), "round trip for %q", key)
	}
}

func TestSnakeKeysNested(t *testing.T) {
	in := map[string]any{
		"societyId": "S1",
		"emergencyContact": map[string]any{
			"name":  "A",
			"phone": "1",
		},
		"flatIds": []any{"F1", "F2"},
		"nestedList": []any{
			map[string]any{"dueDate": "2026-01-01"},
		},
	}

	snake := SnakeKeys(in).(map[string]any)
	require.Contains(t, snake, "society_id")
	require.Contains(t, snake, "emergency_contact")
	assert.Contains(t, snake["emergency_contact"].(map[string]any), "name")
	assert.Contains(t, snake["nested_list"].([]any)[0].(map[string]any), "due_date")

	back := CamelKeys(snake)
	assert.Equal(t, in, back)
}
