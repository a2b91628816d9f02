package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetList(t *testing.T) {
	var set setList
	assert.True(t, set.empty())

	set.add("skills", "Go")
	set.add("tuition_fee_paid", 500)
	where := set.next("1234200024")

	assert.Equal(t, "skills = $1, tuition_fee_paid = $2", set.String())
	assert.Equal(t, "$3", where)
	assert.Equal(t, []interface{}{"Go", 500, "1234200024"}, set.args)
}

func TestSetList_Excluded(t *testing.T) {
	var set setList
	set.addExcluded("ctg_time")
	set.addExcluded("task_completed")

	assert.Equal(t, "ctg_time = EXCLUDED.ctg_time, task_completed = EXCLUDED.task_completed", set.String())
	assert.Empty(t, set.args)
}

func TestWhereList(t *testing.T) {
	var where whereList
	assert.Equal(t, "", where.String())

	where.add("fcc_id = ?", "1234200024")
	where.add("(filename ILIKE ? OR description ILIKE ?)", "%x%", "%x%")
	where.add("monthly_cycle_days && ?::int[]", []int32{1, 15})

	assert.Equal(t,
		" WHERE fcc_id = $1 AND (filename ILIKE $2 OR description ILIKE $3) AND monthly_cycle_days && $4::int[]",
		where.String())
	assert.Len(t, where.args, 4)
}
