package core

import "fmt"

// User-facing notification texts.

func WeeklyLimitMessage(spent, limit float64) string {
	return fmt.Sprintf("Alert: Weekly limit exceeded! Spent %s / %s", FormatAmount(spent), FormatAmount(limit))
}

func GoalReachedMessage(goalName string) string {
	return "CONGRATULATIONS! You reached your dream goal: " + goalName
}

const SpeedbumpMessage = "Speedbump Triggered! This purchase will be held for 24 hours. Think about it."

func SpeedbumpOverMessage(description string) string {
	return fmt.Sprintf("Your 24h speedbump on %q is over. Buy it or let it go?", description)
}

func RedeemedMessage(rewardName string) string {
	return fmt.Sprintf("Redeemed! You've earned the %s.", rewardName)
}

const InsufficientPointsMessage = "Not enough Financial Health Points!"
