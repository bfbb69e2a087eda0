package entities

// DemandLine represents demand for one (article, store) pair
type DemandLine struct {
	ArticleNumber  ArticleNumber
	StoreID        StoreID
	PlanQty        Quantity
	ForecastQty    Quantity
	OnHand         Quantity
	Inbound        Quantity
	HasForecast    bool
	ForecastWeight float64
	Demand         Quantity
}

// ReplenishmentLine represents replenishment need for one (article, store) pair
type ReplenishmentLine struct {
	ArticleNumber   ArticleNumber
	StoreID         StoreID
	ForecastDemand  Quantity
	SafetyStock     Quantity
	PresentationMin Quantity
	OnHand          Quantity
	Inbound         Quantity
	Need            Quantity
}

// ReplenishmentParams are the inputs to safety-stock computation
type ReplenishmentParams struct {
	ServiceLevelZ   float64
	DemandStdDev    float64
	LeadTimeDays    float64
	PresentationMin Quantity
}
