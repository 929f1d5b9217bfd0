package service

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setupWorkOrderService(t *testing.T) (*WorkOrderService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewWorkOrderService(repos.WorkOrder, repos.Master, repos.Template, db), db
}

func seedRouting(t *testing.T, db *gorm.DB, productID string) *entity.Routing {
	t.Helper()
	op1 := &entity.Operation{ID: uuid.New().String(), Code: "OP-CUT", Name: "切割", StandardTime: 30}
	op2 := &entity.Operation{ID: uuid.New().String(), Code: "OP-ASM", Name: "装配", StandardTime: 60}
	if err := db.Create(op1).Error; err != nil {
		t.Fatalf("seed operation: %v", err)
	}
	if err := db.Create(op2).Error; err != nil {
		t.Fatalf("seed operation: %v", err)
	}
	routing := &entity.Routing{
		ID:        uuid.New().String(),
		Code:      "RT-001",
		Name:      "标准工艺",
		ProductID: productID,
		Version:   "1.0",
		IsActive:  true,
		Items: []entity.RoutingItem{
			{ID: uuid.New().String(), OperationID: op1.ID, Sequence: 10, StandardTime: 30},
			{ID: uuid.New().String(), OperationID: op2.ID, Sequence: 20, StandardTime: 60},
		},
	}
	for i := range routing.Items {
		routing.Items[i].RoutingID = routing.ID
	}
	if err := db.Create(routing).Error; err != nil {
		t.Fatalf("seed routing: %v", err)
	}
	return routing
}

func TestCreateWorkOrderGeneratesCode(t *testing.T) {
	svc, db := setupWorkOrderService(t)
	product := testutil.SeedMaterial(t, db, "P001", "成品A", entity.MaterialTypeFinished)

	wo, err := svc.Create(CreateWorkOrderRequest{
		ProductID:       product.ID,
		PlannedQuantity: 100,
	}, "tester")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	want := regexp.MustCompile(fmt.Sprintf(`^WO%s\d{3}$`, time.Now().Format("20060102")))
	if !want.MatchString(wo.Code) {
		t.Errorf("code = %s, want WOYYYYMMDDNNN", wo.Code)
	}
	if wo.Status != entity.WOStatusDraft {
		t.Errorf("status = %s, want draft", wo.Status)
	}
	if wo.Priority != 5 {
		t.Errorf("priority = %d, want default 5", wo.Priority)
	}

	second, err := svc.Create(CreateWorkOrderRequest{
		ProductID:       product.ID,
		PlannedQuantity: 50,
	}, "tester")
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if second.Code <= wo.Code {
		t.Errorf("codes not monotonic: %s then %s", wo.Code, second.Code)
	}
}

func TestCreateWorkOrderRequiresFinishedProduct(t *testing.T) {
	svc, db := setupWorkOrderService(t)
	raw := testutil.SeedMaterial(t, db, "M001", "原料A", entity.MaterialTypeRaw)

	_, err := svc.Create(CreateWorkOrderRequest{
		ProductID:       raw.ID,
		PlannedQuantity: 10,
	}, "tester")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestCreateWorkOrderPriorityRange(t *testing.T) {
	svc, db := setupWorkOrderService(t)
	product := testutil.SeedMaterial(t, db, "P001", "成品A", entity.MaterialTypeFinished)

	_, err := svc.Create(CreateWorkOrderRequest{
		ProductID:       product.ID,
		PlannedQuantity: 10,
		Priority:        11,
	}, "tester")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestCreateWorkOrderExplodesActiveRouting(t *testing.T) {
	svc, db := setupWorkOrderService(t)
	product := testutil.SeedMaterial(t, db, "P001", "成品A", entity.MaterialTypeFinished)
	routing := seedRouting(t, db, product.ID)

	wo, err := svc.Create(CreateWorkOrderRequest{
		ProductID:       product.ID,
		PlannedQuantity: 100,
	}, "tester")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if wo.RoutingID != routing.ID {
		t.Errorf("routing id = %s, want active routing %s", wo.RoutingID, routing.ID)
	}

	loaded, err := svc.GetByID(wo.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(loaded.Operations) != 2 {
		t.Fatalf("operation count = %d, want 2", len(loaded.Operations))
	}
	if loaded.Operations[0].Sequence != 10 || loaded.Operations[1].Sequence != 20 {
		t.Errorf("operations not ordered by sequence: %d, %d",
			loaded.Operations[0].Sequence, loaded.Operations[1].Sequence)
	}
	if loaded.Operations[0].PlannedQuantity != 100 {
		t.Errorf("operation planned qty = %v, want 100", loaded.Operations[0].PlannedQuantity)
	}
}

func TestWorkOrderLifecycle(t *testing.T) {
	svc, db := setupWorkOrderService(t)
	product := testutil.SeedMaterial(t, db, "P001", "成品A", entity.MaterialTypeFinished)

	wo, err := svc.Create(CreateWorkOrderRequest{ProductID: product.ID, PlannedQuantity: 10}, "tester")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// draft 不允许直接开工/完工
	if _, err := svc.Start(wo.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("start from draft err = %v, want ErrInvalidTransition", err)
	}
	if _, err := svc.Complete(wo.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("complete from draft err = %v, want ErrInvalidTransition", err)
	}

	released, err := svc.Release(wo.ID)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if released.Status != entity.WOStatusReleased {
		t.Errorf("status = %s, want released", released.Status)
	}

	started, err := svc.Start(wo.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if started.Status != entity.WOStatusInProgress || started.ActualStartDate == nil {
		t.Errorf("start: status=%s actual_start=%v", started.Status, started.ActualStartDate)
	}

	completed, err := svc.Complete(wo.ID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != entity.WOStatusCompleted || completed.ActualEndDate == nil {
		t.Errorf("complete: status=%s actual_end=%v", completed.Status, completed.ActualEndDate)
	}

	// 终态不可取消
	if _, err := svc.Cancel(wo.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancel completed err = %v, want ErrInvalidTransition", err)
	}
}

func TestWorkOrderNotFound(t *testing.T) {
	svc, _ := setupWorkOrderService(t)
	if _, err := svc.GetByID(uuid.New().String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Release(uuid.New().String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("release err = %v, want ErrNotFound", err)
	}
}

func TestGenerateOperations(t *testing.T) {
	svc, db := setupWorkOrderService(t)
	product := testutil.SeedMaterial(t, db, "P001", "成品A", entity.MaterialTypeFinished)
	seedRouting(t, db, product.ID)

	wo, err := svc.Create(CreateWorkOrderRequest{ProductID: product.ID, PlannedQuantity: 10}, "tester")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// 创建已生成工序，不带 force 不重建
	count, generated, err := svc.GenerateOperations(wo.ID, false)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if generated || count != 2 {
		t.Errorf("generate = (%d, %v), want (2, false)", count, generated)
	}

	count, generated, err = svc.GenerateOperations(wo.ID, true)
	if err != nil {
		t.Fatalf("force generate failed: %v", err)
	}
	if !generated || count != 2 {
		t.Errorf("force generate = (%d, %v), want (2, true)", count, generated)
	}
}
