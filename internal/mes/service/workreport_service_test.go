package service

import (
	"errors"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setupReportEnv(t *testing.T) (*WorkReportService, *WorkOrderService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewWorkReportService(repos.WorkOrder, db),
		NewWorkOrderService(repos.WorkOrder, repos.Master, repos.Template, db), db
}

// seedReleasedOrder 创建带单工序的已下达工单
func seedReleasedOrder(t *testing.T, woSvc *WorkOrderService, db *gorm.DB, qty float64) *entity.WorkOrder {
	t.Helper()
	product := testutil.SeedMaterial(t, db, "P001", "成品A", entity.MaterialTypeFinished)
	op := &entity.Operation{ID: uuid.New().String(), Code: "OP-CUT", Name: "切割"}
	if err := db.Create(op).Error; err != nil {
		t.Fatalf("seed operation: %v", err)
	}

	wo, err := woSvc.Create(CreateWorkOrderRequest{
		ProductID:       product.ID,
		PlannedQuantity: qty,
		Operations: []WorkOrderOperationInput{
			{OperationID: op.ID, Sequence: 10},
		},
	}, "tester")
	if err != nil {
		t.Fatalf("create work order: %v", err)
	}
	if _, err := woSvc.Release(wo.ID); err != nil {
		t.Fatalf("release: %v", err)
	}

	loaded, err := woSvc.GetByID(wo.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	return loaded
}

func TestSubmitStartReport(t *testing.T) {
	svc, woSvc, db := setupReportEnv(t)
	wo := seedReleasedOrder(t, woSvc, db, 10)
	opID := wo.Operations[0].ID

	if _, err := svc.Submit(CreateWorkReportRequest{
		WorkOrderID:          wo.ID,
		WorkOrderOperationID: opID,
		ReportType:           entity.ReportTypeStart,
	}); err != nil {
		t.Fatalf("start report failed: %v", err)
	}

	reloaded, _ := woSvc.GetByID(wo.ID)
	if reloaded.Status != entity.WOStatusInProgress || reloaded.ActualStartDate == nil {
		t.Errorf("order after start: status=%s actual_start=%v", reloaded.Status, reloaded.ActualStartDate)
	}
	if reloaded.Operations[0].Status != entity.WOOpStatusInProgress {
		t.Errorf("operation status = %s, want in_progress", reloaded.Operations[0].Status)
	}
	if reloaded.Operations[0].ActualStartDate == nil {
		t.Error("operation actual_start not stamped")
	}
}

func TestSubmitCompleteReportAccumulates(t *testing.T) {
	svc, woSvc, db := setupReportEnv(t)
	wo := seedReleasedOrder(t, woSvc, db, 10)
	opID := wo.Operations[0].ID

	for i := 0; i < 2; i++ {
		if _, err := svc.Submit(CreateWorkReportRequest{
			WorkOrderID:          wo.ID,
			WorkOrderOperationID: opID,
			ReportType:           entity.ReportTypeComplete,
			Quantity:             4,
		}); err != nil {
			t.Fatalf("complete report %d failed: %v", i, err)
		}
	}

	reloaded, _ := woSvc.GetByID(wo.ID)
	if reloaded.CompletedQuantity != 8 {
		t.Errorf("order completed = %v, want 8", reloaded.CompletedQuantity)
	}
	op := reloaded.Operations[0]
	if op.CompletedQuantity != 8 || op.Status == entity.WOOpStatusCompleted {
		t.Errorf("op completed=%v status=%s, want 8/not completed", op.CompletedQuantity, op.Status)
	}

	// 达到计划数量后工序完工并盖章一次
	if _, err := svc.Submit(CreateWorkReportRequest{
		WorkOrderID:          wo.ID,
		WorkOrderOperationID: opID,
		ReportType:           entity.ReportTypeComplete,
		Quantity:             2,
	}); err != nil {
		t.Fatalf("final complete failed: %v", err)
	}
	reloaded, _ = woSvc.GetByID(wo.ID)
	op = reloaded.Operations[0]
	if op.Status != entity.WOOpStatusCompleted || op.ActualEndDate == nil {
		t.Fatalf("op after final: status=%s actual_end=%v", op.Status, op.ActualEndDate)
	}
	firstEnd := *op.ActualEndDate

	// 超额报工不重写完工时间
	if _, err := svc.Submit(CreateWorkReportRequest{
		WorkOrderID:          wo.ID,
		WorkOrderOperationID: opID,
		ReportType:           entity.ReportTypeComplete,
		Quantity:             1,
	}); err != nil {
		t.Fatalf("over-complete failed: %v", err)
	}
	reloaded, _ = woSvc.GetByID(wo.ID)
	op = reloaded.Operations[0]
	if !op.ActualEndDate.Equal(firstEnd) {
		t.Errorf("actual_end rewritten: %v -> %v", firstEnd, *op.ActualEndDate)
	}
	if op.CompletedQuantity != 11 {
		t.Errorf("op completed = %v, want 11", op.CompletedQuantity)
	}
}

func TestSubmitScrapReport(t *testing.T) {
	svc, woSvc, db := setupReportEnv(t)
	wo := seedReleasedOrder(t, woSvc, db, 10)
	opID := wo.Operations[0].ID

	if _, err := svc.Submit(CreateWorkReportRequest{
		WorkOrderID:          wo.ID,
		WorkOrderOperationID: opID,
		ReportType:           entity.ReportTypeScrap,
		Quantity:             3,
	}); err != nil {
		t.Fatalf("scrap failed: %v", err)
	}

	reloaded, _ := woSvc.GetByID(wo.ID)
	if reloaded.ScrappedQuantity != 3 || reloaded.Operations[0].ScrappedQuantity != 3 {
		t.Errorf("scrapped = %v/%v, want 3/3",
			reloaded.ScrappedQuantity, reloaded.Operations[0].ScrappedQuantity)
	}
	if reloaded.CompletedQuantity != 0 {
		t.Errorf("scrap should not add to completed, got %v", reloaded.CompletedQuantity)
	}
}

func TestSubmitPauseResumeRecordOnly(t *testing.T) {
	svc, woSvc, db := setupReportEnv(t)
	wo := seedReleasedOrder(t, woSvc, db, 10)

	for _, rt := range []string{entity.ReportTypePause, entity.ReportTypeResume} {
		if _, err := svc.Submit(CreateWorkReportRequest{
			WorkOrderID: wo.ID,
			ReportType:  rt,
		}); err != nil {
			t.Fatalf("%s failed: %v", rt, err)
		}
	}

	reloaded, _ := woSvc.GetByID(wo.ID)
	if reloaded.Status != entity.WOStatusReleased {
		t.Errorf("pause/resume changed status to %s", reloaded.Status)
	}

	var count int64
	db.Model(&entity.WorkReport{}).Where("work_order_id = ?", wo.ID).Count(&count)
	if count != 2 {
		t.Errorf("report rows = %d, want 2", count)
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, woSvc, db := setupReportEnv(t)
	wo := seedReleasedOrder(t, woSvc, db, 10)

	if _, err := svc.Submit(CreateWorkReportRequest{
		WorkOrderID: wo.ID,
		ReportType:  "finish",
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown type err = %v, want ErrValidation", err)
	}

	if _, err := svc.Submit(CreateWorkReportRequest{
		WorkOrderID: wo.ID,
		ReportType:  entity.ReportTypeComplete,
		Quantity:    0,
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("zero complete err = %v, want ErrValidation", err)
	}

	if _, err := svc.Submit(CreateWorkReportRequest{
		WorkOrderID: uuid.New().String(),
		ReportType:  entity.ReportTypeStart,
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing order err = %v, want ErrNotFound", err)
	}
}

func TestWIPTraceByBatch(t *testing.T) {
	svc, woSvc, db := setupReportEnv(t)
	wo := seedReleasedOrder(t, woSvc, db, 10)

	for i := 0; i < 2; i++ {
		if _, err := svc.CreateWIP(CreateWIPRequest{
			WorkOrderID: wo.ID,
			BatchNumber: "BATCH-X",
			Quantity:    5,
		}); err != nil {
			t.Fatalf("create wip: %v", err)
		}
	}
	if _, err := svc.CreateWIP(CreateWIPRequest{
		WorkOrderID: wo.ID,
		BatchNumber: "BATCH-Y",
		Quantity:    5,
	}); err != nil {
		t.Fatalf("create wip: %v", err)
	}

	traced, err := svc.TraceByBatch("BATCH-X")
	if err != nil {
		t.Fatalf("trace failed: %v", err)
	}
	if len(traced) != 2 {
		t.Errorf("traced = %d, want 2", len(traced))
	}
}
