package service

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/redis/go-redis/v9"
)

const (
	// unassignedEquipment 未绑定设备的工序排入同一条虚拟资源线
	unassignedEquipment = "unassigned"
	// defaultDayHours 设备未配置产能时的每日可用工时
	defaultDayHours = 8.0
	// dayStartHour 跨日顺延后的次日开工时刻
	dayStartHour = 8

	scheduleCacheKey = "mes:schedule:latest"
	scheduleCacheTTL = 10 * time.Minute
)

// ScheduleService 有限产能正排：对 released/in_progress 工单的工序
// 按优先级生成设备占用计划。无状态，每次运行基于当前数据全量重算。
type ScheduleService struct {
	woRepo     *repository.WorkOrderRepository
	masterRepo *repository.MasterRepository
	rdb        *redis.Client
}

func NewScheduleService(woRepo *repository.WorkOrderRepository, masterRepo *repository.MasterRepository, rdb *redis.Client) *ScheduleService {
	return &ScheduleService{woRepo: woRepo, masterRepo: masterRepo, rdb: rdb}
}

// ScheduleTask 单个工序的排程结果
type ScheduleTask struct {
	WorkOrderID       string    `json:"work_order_id"`
	WorkOrderCode     string    `json:"work_order_code"`
	OperationID       string    `json:"operation_id"`
	Sequence          int       `json:"sequence"`
	EquipmentID       string    `json:"equipment_id"`
	RemainingQuantity float64   `json:"remaining_quantity"`
	Hours             float64   `json:"hours"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
}

// ScheduleWarning 预计延期预警
type ScheduleWarning struct {
	WorkOrderID    string    `json:"work_order_id"`
	WorkOrderCode  string    `json:"work_order_code"`
	PlannedEndDate time.Time `json:"planned_end_date"`
	ScheduledEnd   time.Time `json:"scheduled_end"`
	DelayHours     float64   `json:"delay_hours"`
}

// ScheduleResult 一次排程运行的完整输出
type ScheduleResult struct {
	Tasks       []ScheduleTask     `json:"tasks"`
	Loads       map[string]float64 `json:"loads"` // 设备ID -> 占用工时(小时)
	Warnings    []ScheduleWarning  `json:"warnings"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// scheduleOperation 排程输入快照：工序行及其解析好的主数据参数。
// 主数据缺失时 StandardTime/DayHours 为零值，由算法退化处理。
type scheduleOperation struct {
	WorkOrderID     string
	WorkOrderCode   string
	Priority        int
	OperationID     string
	Sequence        int
	EquipmentID     string
	PlannedQty      float64
	CompletedQty    float64
	PlannedStart    *time.Time
	OrderPlannedEnd *time.Time
	StandardTime    float64 // 分钟/件
	DayHours        float64 // 设备每日可用工时
}

// Run 执行一次排程并缓存结果。strictPrecedence 为 true 时，
// 工序还需等待同工单上一道工序结束后才能开始。
func (s *ScheduleService) Run(ctx context.Context, strictPrecedence bool) (*ScheduleResult, error) {
	ops, orders, err := s.woRepo.ListSchedulableOperations()
	if err != nil {
		return nil, err
	}

	orderByID := make(map[string]*entity.WorkOrder, len(orders))
	for i := range orders {
		orderByID[orders[i].ID] = &orders[i]
	}

	// 主数据查询失败只降级为默认参数，不中断排程
	standardTimes := s.loadStandardTimes(ops)
	dayHours := s.loadDayHours(ops)

	inputs := make([]scheduleOperation, 0, len(ops))
	for _, op := range ops {
		wo, ok := orderByID[op.WorkOrderID]
		if !ok {
			continue
		}
		inputs = append(inputs, scheduleOperation{
			WorkOrderID:     op.WorkOrderID,
			WorkOrderCode:   wo.Code,
			Priority:        wo.Priority,
			OperationID:     op.OperationID,
			Sequence:        op.Sequence,
			EquipmentID:     op.EquipmentID,
			PlannedQty:      op.PlannedQuantity,
			CompletedQty:    op.CompletedQuantity,
			PlannedStart:    wo.PlannedStartDate,
			OrderPlannedEnd: wo.PlannedEndDate,
			StandardTime:    standardTimes[op.OperationID],
			DayHours:        dayHours[op.EquipmentID],
		})
	}

	result := buildSchedule(inputs, time.Now(), strictPrecedence)
	s.cacheResult(ctx, result)
	return result, nil
}

// Latest 返回最近一次排程缓存，未配置 redis 或无缓存时返回 nil。
func (s *ScheduleService) Latest(ctx context.Context) (*ScheduleResult, error) {
	if s.rdb == nil {
		return nil, nil
	}
	data, err := s.rdb.Get(ctx, scheduleCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var result ScheduleResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *ScheduleService) cacheResult(ctx context.Context, result *ScheduleResult) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	// 缓存失败不影响排程结果
	s.rdb.Set(ctx, scheduleCacheKey, data, scheduleCacheTTL)
}

func (s *ScheduleService) loadStandardTimes(ops []entity.WorkOrderOperation) map[string]float64 {
	seen := make(map[string]bool)
	var ids []string
	for _, op := range ops {
		if op.OperationID != "" && !seen[op.OperationID] {
			seen[op.OperationID] = true
			ids = append(ids, op.OperationID)
		}
	}
	result := make(map[string]float64, len(ids))
	defs, err := s.masterRepo.ListOperationsByIDs(ids)
	if err != nil {
		return result
	}
	for _, def := range defs {
		result[def.ID] = def.StandardTime
	}
	return result
}

func (s *ScheduleService) loadDayHours(ops []entity.WorkOrderOperation) map[string]float64 {
	seen := make(map[string]bool)
	var ids []string
	for _, op := range ops {
		if op.EquipmentID != "" && !seen[op.EquipmentID] {
			seen[op.EquipmentID] = true
			ids = append(ids, op.EquipmentID)
		}
	}
	result := make(map[string]float64, len(ids))
	equipment, err := s.masterRepo.ListEquipmentByIDs(ids)
	if err != nil {
		return result
	}
	for _, eq := range equipment {
		result[eq.ID] = eq.Capacity
	}
	return result
}

// buildSchedule 纯排程核心：对输入工序按 (优先级, 工单ID, 序号) 全序
// 逐个分配到设备时间线。同一设备串行占用，未绑定设备的工序共用
// unassigned 虚拟线。工时按剩余数量×标准工时折算，标准工时缺失时
// 按每小时1件估算；超出当日可用工时的部分顺延到次日08:00。
func buildSchedule(ops []scheduleOperation, now time.Time, strictPrecedence bool) *ScheduleResult {
	sorted := make([]scheduleOperation, len(ops))
	copy(sorted, ops)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		if sorted[i].WorkOrderID != sorted[j].WorkOrderID {
			return sorted[i].WorkOrderID < sorted[j].WorkOrderID
		}
		return sorted[i].Sequence < sorted[j].Sequence
	})

	result := &ScheduleResult{
		Tasks:       make([]ScheduleTask, 0, len(sorted)),
		Loads:       make(map[string]float64),
		Warnings:    make([]ScheduleWarning, 0),
		GeneratedAt: now,
	}

	cursors := make(map[string]time.Time)   // 设备ID -> 时间线游标
	orderEnds := make(map[string]time.Time) // 工单ID -> 已排工序的最晚结束时间
	var orderSeq []string                   // 工单首次出现顺序，保证预警输出稳定
	orderMeta := make(map[string]scheduleOperation)

	for _, op := range sorted {
		equipKey := op.EquipmentID
		if equipKey == "" {
			equipKey = unassignedEquipment
		}

		start := now
		if cursor, ok := cursors[equipKey]; ok && cursor.After(start) {
			start = cursor
		}
		if op.PlannedStart != nil && op.PlannedStart.After(start) {
			start = *op.PlannedStart
		}
		if strictPrecedence {
			if prevEnd, ok := orderEnds[op.WorkOrderID]; ok && prevEnd.After(start) {
				start = prevEnd
			}
		}

		remaining := op.PlannedQty - op.CompletedQty
		if remaining < 0 {
			remaining = 0
		}
		var hours float64
		if op.StandardTime > 0 {
			hours = remaining * op.StandardTime / 60
		} else {
			hours = remaining
		}
		capacity := op.DayHours
		if capacity <= 0 {
			capacity = defaultDayHours
		}

		end := rollForward(start, hours, capacity)

		cursors[equipKey] = end
		if prev, ok := orderEnds[op.WorkOrderID]; !ok || end.After(prev) {
			orderEnds[op.WorkOrderID] = end
		}
		if _, ok := orderMeta[op.WorkOrderID]; !ok {
			orderMeta[op.WorkOrderID] = op
			orderSeq = append(orderSeq, op.WorkOrderID)
		}
		result.Loads[equipKey] += hours
		result.Tasks = append(result.Tasks, ScheduleTask{
			WorkOrderID:       op.WorkOrderID,
			WorkOrderCode:     op.WorkOrderCode,
			OperationID:       op.OperationID,
			Sequence:          op.Sequence,
			EquipmentID:       equipKey,
			RemainingQuantity: remaining,
			Hours:             hours,
			StartTime:         start,
			EndTime:           end,
		})

	}

	for _, woID := range orderSeq {
		meta := orderMeta[woID]
		if meta.OrderPlannedEnd == nil {
			continue
		}
		end := orderEnds[woID]
		if !end.After(*meta.OrderPlannedEnd) {
			continue
		}
		result.Warnings = append(result.Warnings, ScheduleWarning{
			WorkOrderID:    woID,
			WorkOrderCode:  meta.WorkOrderCode,
			PlannedEndDate: *meta.OrderPlannedEnd,
			ScheduledEnd:   end,
			DelayHours:     math.Round(end.Sub(*meta.OrderPlannedEnd).Hours()*100) / 100,
		})
	}

	return result
}

// rollForward 从 start 起消耗 hours 工时，每日最多占用 dayHours，
// 余量顺延到次日 dayStartHour 点继续。
func rollForward(start time.Time, hours, dayHours float64) time.Time {
	end := start
	remaining := hours
	for remaining > 0 {
		take := math.Min(dayHours, remaining)
		end = end.Add(time.Duration(take * float64(time.Hour)))
		remaining -= take
		if remaining > 0 {
			next := end.AddDate(0, 0, 1)
			end = time.Date(next.Year(), next.Month(), next.Day(), dayStartHour, 0, 0, 0, next.Location())
		}
	}
	return end
}
