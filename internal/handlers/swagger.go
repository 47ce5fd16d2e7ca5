package handlers

// @title Finance Tax API
// @version 1.0
// @description Tax computation engine for a personal finance app: income tax, shelf price breakdowns, reverse decomposition and specialised calculators
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/your-org/finance-tax-api

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8081
// @BasePath /api/v1

// @tag.name tax
// @tag.description Income tax, forward composition, reverse decomposition and purchase analysis

// @tag.name calculators
// @tag.description Stamp duty, vehicle import, VAT and fuel tax calculators

// @tag.name info
// @tag.description Published rates and loaded rule sets
