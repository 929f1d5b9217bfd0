package service

import (
	"testing"
	"time"
)

var schedNow = time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

func TestBuildScheduleOrdering(t *testing.T) {
	ops := []scheduleOperation{
		{WorkOrderID: "wo-b", WorkOrderCode: "WO-B", Priority: 3, OperationID: "op1", Sequence: 10, PlannedQty: 1},
		{WorkOrderID: "wo-a", WorkOrderCode: "WO-A", Priority: 3, OperationID: "op1", Sequence: 20, PlannedQty: 1},
		{WorkOrderID: "wo-a", WorkOrderCode: "WO-A", Priority: 3, OperationID: "op1", Sequence: 10, PlannedQty: 1},
		{WorkOrderID: "wo-c", WorkOrderCode: "WO-C", Priority: 1, OperationID: "op1", Sequence: 10, PlannedQty: 1},
	}

	result := buildSchedule(ops, schedNow, false)
	if len(result.Tasks) != 4 {
		t.Fatalf("task count = %d, want 4", len(result.Tasks))
	}

	// 优先级升序，同优先级按工单ID，同工单按工序序号
	wantOrder := []struct {
		wo  string
		seq int
	}{
		{"wo-c", 10},
		{"wo-a", 10},
		{"wo-a", 20},
		{"wo-b", 10},
	}
	for i, want := range wantOrder {
		got := result.Tasks[i]
		if got.WorkOrderID != want.wo || got.Sequence != want.seq {
			t.Errorf("task[%d] = (%s, %d), want (%s, %d)", i, got.WorkOrderID, got.Sequence, want.wo, want.seq)
		}
	}
}

func TestBuildScheduleDeterministic(t *testing.T) {
	ops := []scheduleOperation{
		{WorkOrderID: "wo-1", Priority: 5, Sequence: 10, PlannedQty: 4, EquipmentID: "eq1", StandardTime: 30, DayHours: 8},
		{WorkOrderID: "wo-2", Priority: 5, Sequence: 10, PlannedQty: 6, EquipmentID: "eq1", StandardTime: 30, DayHours: 8},
	}

	first := buildSchedule(ops, schedNow, false)
	second := buildSchedule(ops, schedNow, false)
	for i := range first.Tasks {
		a, b := first.Tasks[i], second.Tasks[i]
		if !a.StartTime.Equal(b.StartTime) || !a.EndTime.Equal(b.EndTime) || a.WorkOrderID != b.WorkOrderID {
			t.Fatalf("run not deterministic at task %d: %+v vs %+v", i, a, b)
		}
	}
}

func TestBuildScheduleEquipmentSerialization(t *testing.T) {
	// 同一设备上两道工序串行排队
	ops := []scheduleOperation{
		{WorkOrderID: "wo-1", Priority: 5, Sequence: 10, PlannedQty: 4, EquipmentID: "eq1", StandardTime: 30, DayHours: 8},
		{WorkOrderID: "wo-2", Priority: 5, Sequence: 10, PlannedQty: 2, EquipmentID: "eq1", StandardTime: 30, DayHours: 8},
	}

	result := buildSchedule(ops, schedNow, false)
	first, second := result.Tasks[0], result.Tasks[1]
	// 4件 × 30分钟 = 2小时
	if !first.EndTime.Equal(schedNow.Add(2 * time.Hour)) {
		t.Errorf("first end = %v, want %v", first.EndTime, schedNow.Add(2*time.Hour))
	}
	if !second.StartTime.Equal(first.EndTime) {
		t.Errorf("second start = %v, want cursor %v", second.StartTime, first.EndTime)
	}
	if result.Loads["eq1"] != 3 {
		t.Errorf("eq1 load = %v, want 3", result.Loads["eq1"])
	}
}

func TestBuildScheduleUnassignedBucket(t *testing.T) {
	ops := []scheduleOperation{
		{WorkOrderID: "wo-1", Priority: 5, Sequence: 10, PlannedQty: 2, StandardTime: 60},
		{WorkOrderID: "wo-2", Priority: 5, Sequence: 10, PlannedQty: 1, StandardTime: 60},
	}

	result := buildSchedule(ops, schedNow, false)
	if result.Tasks[0].EquipmentID != "unassigned" || result.Tasks[1].EquipmentID != "unassigned" {
		t.Fatalf("expected unassigned bucket, got %s / %s", result.Tasks[0].EquipmentID, result.Tasks[1].EquipmentID)
	}
	// 无设备工序共用同一条虚拟时间线
	if !result.Tasks[1].StartTime.Equal(result.Tasks[0].EndTime) {
		t.Errorf("second start = %v, want %v", result.Tasks[1].StartTime, result.Tasks[0].EndTime)
	}
	if result.Loads["unassigned"] != 3 {
		t.Errorf("unassigned load = %v, want 3", result.Loads["unassigned"])
	}
}

func TestBuildScheduleDayRollover(t *testing.T) {
	// 10小时工作量，每日8小时：当日 09:00-17:00 消耗8小时，
	// 余量顺延到次日 08:00 起再排2小时。
	ops := []scheduleOperation{
		{WorkOrderID: "wo-1", Priority: 5, Sequence: 10, PlannedQty: 10, EquipmentID: "eq1", StandardTime: 60, DayHours: 8},
	}

	result := buildSchedule(ops, schedNow, false)
	task := result.Tasks[0]
	if !task.StartTime.Equal(schedNow) {
		t.Errorf("start = %v, want %v", task.StartTime, schedNow)
	}
	wantEnd := time.Date(2024, 6, 4, 10, 0, 0, 0, time.UTC)
	if !task.EndTime.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", task.EndTime, wantEnd)
	}
	if task.Hours != 10 {
		t.Errorf("hours = %v, want 10", task.Hours)
	}
}

func TestBuildScheduleCompletedQuantityReducesWork(t *testing.T) {
	ops := []scheduleOperation{
		{WorkOrderID: "wo-1", Priority: 5, Sequence: 10, PlannedQty: 10, CompletedQty: 6, EquipmentID: "eq1", StandardTime: 60, DayHours: 8},
	}

	result := buildSchedule(ops, schedNow, false)
	task := result.Tasks[0]
	if task.RemainingQuantity != 4 {
		t.Errorf("remaining = %v, want 4", task.RemainingQuantity)
	}
	if !task.EndTime.Equal(schedNow.Add(4 * time.Hour)) {
		t.Errorf("end = %v, want %v", task.EndTime, schedNow.Add(4*time.Hour))
	}
}

func TestBuildScheduleOverCompletedClampsToZero(t *testing.T) {
	ops := []scheduleOperation{
		{WorkOrderID: "wo-1", Priority: 5, Sequence: 10, PlannedQty: 5, CompletedQty: 8, EquipmentID: "eq1", StandardTime: 60},
	}

	result := buildSchedule(ops, schedNow, false)
	task := result.Tasks[0]
	if task.RemainingQuantity != 0 || task.Hours != 0 {
		t.Errorf("remaining/hours = %v/%v, want 0/0", task.RemainingQuantity, task.Hours)
	}
	if !task.EndTime.Equal(task.StartTime) {
		t.Errorf("zero work should not advance time: start %v end %v", task.StartTime, task.EndTime)
	}
}

func TestBuildScheduleMissingStandardTimeFallback(t *testing.T) {
	// 无标准工时按每小时1件估算
	ops := []scheduleOperation{
		{WorkOrderID: "wo-1", Priority: 5, Sequence: 10, PlannedQty: 3, EquipmentID: "eq1"},
	}

	result := buildSchedule(ops, schedNow, false)
	if result.Tasks[0].Hours != 3 {
		t.Errorf("hours = %v, want 3", result.Tasks[0].Hours)
	}
}

func TestBuildSchedulePlannedStartDelaysWork(t *testing.T) {
	plannedStart := schedNow.Add(48 * time.Hour)
	ops := []scheduleOperation{
		{WorkOrderID: "wo-1", Priority: 5, Sequence: 10, PlannedQty: 1, EquipmentID: "eq1",
			StandardTime: 60, PlannedStart: &plannedStart},
	}

	result := buildSchedule(ops, schedNow, false)
	if !result.Tasks[0].StartTime.Equal(plannedStart) {
		t.Errorf("start = %v, want planned start %v", result.Tasks[0].StartTime, plannedStart)
	}
}

func TestBuildScheduleStrictPrecedence(t *testing.T) {
	// 两道工序在不同设备上：默认并行，严格模式下串行
	ops := []scheduleOperation{
		{WorkOrderID: "wo-1", Priority: 5, Sequence: 10, PlannedQty: 2, EquipmentID: "eq1", StandardTime: 60, DayHours: 8},
		{WorkOrderID: "wo-1", Priority: 5, Sequence: 20, PlannedQty: 2, EquipmentID: "eq2", StandardTime: 60, DayHours: 8},
	}

	loose := buildSchedule(ops, schedNow, false)
	if !loose.Tasks[1].StartTime.Equal(schedNow) {
		t.Errorf("default mode second op start = %v, want %v", loose.Tasks[1].StartTime, schedNow)
	}

	strict := buildSchedule(ops, schedNow, true)
	if !strict.Tasks[1].StartTime.Equal(strict.Tasks[0].EndTime) {
		t.Errorf("strict mode second op start = %v, want %v", strict.Tasks[1].StartTime, strict.Tasks[0].EndTime)
	}
}

func TestBuildScheduleDueDateWarning(t *testing.T) {
	due := schedNow.Add(1 * time.Hour)
	ops := []scheduleOperation{
		{WorkOrderID: "wo-1", WorkOrderCode: "WO-1", Priority: 5, Sequence: 10, PlannedQty: 3,
			EquipmentID: "eq1", StandardTime: 60, DayHours: 8, OrderPlannedEnd: &due},
	}

	result := buildSchedule(ops, schedNow, false)
	if len(result.Warnings) != 1 {
		t.Fatalf("warning count = %d, want 1", len(result.Warnings))
	}
	w := result.Warnings[0]
	if w.WorkOrderCode != "WO-1" {
		t.Errorf("warning code = %s, want WO-1", w.WorkOrderCode)
	}
	// 计划完成后2小时才能排完
	if w.DelayHours != 2 {
		t.Errorf("delay = %v, want 2", w.DelayHours)
	}
}

func TestBuildScheduleNoWarningWhenOnTime(t *testing.T) {
	due := schedNow.Add(10 * time.Hour)
	ops := []scheduleOperation{
		{WorkOrderID: "wo-1", Priority: 5, Sequence: 10, PlannedQty: 2,
			EquipmentID: "eq1", StandardTime: 60, DayHours: 8, OrderPlannedEnd: &due},
	}

	result := buildSchedule(ops, schedNow, false)
	if len(result.Warnings) != 0 {
		t.Fatalf("warning count = %d, want 0", len(result.Warnings))
	}
}

func TestRollForwardWithinDay(t *testing.T) {
	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	end := rollForward(start, 4, 8)
	if !end.Equal(start.Add(4 * time.Hour)) {
		t.Errorf("end = %v, want %v", end, start.Add(4*time.Hour))
	}
}

func TestRollForwardMultiDay(t *testing.T) {
	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	// 20小时按每日8小时：8 + 8 + 4，第三天 08:00 起排4小时
	end := rollForward(start, 20, 8)
	want := time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)
	if !end.Equal(want) {
		t.Errorf("end = %v, want %v", end, want)
	}
}
