package models

// Customer carries an ordered risk score history (0-100, most-recent-last)
// maintained by the upstream scoring process; this service only consumes it.
type Customer struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	RiskScoreHistory []float64 `json:"risk_score_history"`
}

func decodeCustomer(row rawRecord, c *coercion) Customer {
	return Customer{
		ID:               row.str("customer_id", "id"),
		Name:             row.str("name"),
		Email:            row.str("email"),
		RiskScoreHistory: c.floatSlice(row.value("risk_score_history")),
	}
}

// LatestRiskScore returns the most recent score, or 0 when no history exists.
func (c Customer) LatestRiskScore() float64 {
	if len(c.RiskScoreHistory) == 0 {
		return 0
	}
	return c.RiskScoreHistory[len(c.RiskScoreHistory)-1]
}

// RiskTrend is latest minus first: positive means the customer has been
// getting riskier over the observed history.
func (c Customer) RiskTrend() float64 {
	if len(c.RiskScoreHistory) < 2 {
		return 0
	}
	return c.RiskScoreHistory[len(c.RiskScoreHistory)-1] - c.RiskScoreHistory[0]
}
