// api/service/services.go
package service

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/choiwab/patient-x/api/dao"
	"github.com/choiwab/patient-x/api/pdp/engine"
	"github.com/choiwab/patient-x/api/storage"
	"github.com/choiwab/patient-x/api/util"
)

type Services struct {
	Policy    IPolicyService
	Attribute IAttributeService
	Access    IAccessService
	Record    IRecordService
}

// InitializeServices builds the DAOs, the decision engine and the services on
// top of one Neo4j driver and one shared logical clock.
func InitializeServices(
	driver neo4j.Driver,
	caps storage.Capacities,
	clock util.Clock,
	validationUtil *util.ValidationUtil,
	cacheService *util.CacheService,
	eventBus *util.EventBus,
) (*Services, error) {
	policyDAO := dao.NewPolicyDAO(driver)
	attributeDAO := dao.NewAttributeDAO(driver, caps)
	recordDAO := dao.NewRecordDAO(driver, caps)

	evaluator := engine.NewPolicyEvaluator(policyDAO, attributeDAO)
	aggregator := engine.NewAccessAggregator(evaluator, recordDAO)

	services := &Services{
		Policy:    NewPolicyService(policyDAO, caps, clock, validationUtil, cacheService, eventBus),
		Attribute: NewAttributeService(attributeDAO, clock, validationUtil, cacheService, eventBus),
		Access:    NewAccessService(recordDAO, recordDAO, policyDAO, evaluator, aggregator, clock, eventBus),
		Record:    NewRecordService(recordDAO, clock, validationUtil, eventBus),
	}

	return services, nil
}
