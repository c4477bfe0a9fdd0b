//go:build ignore

// This program generates the spreadsheet fixtures used by benchmarks and
// manual testing. Run it from the repository root:
//
//	go run testdata/generate_fixtures.go
package main

import (
	"fmt"
	"os"

	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/formats/xlsx"
	"github.com/klytics/sheetkit/internal/table"
)

func main() {
	if err := generateXlsx(); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating sample.xlsx: %v\n", err)
		os.Exit(1)
	}
	if err := generateCSV(); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating clientes.csv: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Test fixtures generated successfully.")
}

var s = table.String

func clientes() *table.Table {
	return table.MustFromRows(
		[]string{"Nome Completo", "Email", "Telefone", "CNPJ", "Empresa", "Valor"},
		[][]table.Value{
			{s("Ana Maria Souza"), s("ANA@EXEMPLO.COM"), s("(81) 99876-5432"), s("12.345.678/0001-90"), s("padaria boa vista"), table.Number(1500)},
			{s("Bruno Lima"), s("bruno@empresa.com.br"), s("(84) 98765-4321"), s("98.765.432/0001-10"), s("LIMA & FILHOS"), table.Number(320.5)},
			{s("Carla Dias"), s("carla@@exemplo"), s("whats 81 91234-5678"), table.Null(), s("Dias Comércio"), table.Number(980)},
			{s("Ana Maria Souza"), s("ANA@EXEMPLO.COM"), s("(81) 99876-5432"), s("12.345.678/0001-90"), s("padaria boa vista"), table.Number(1500)},
			{s("  Davi   Rocha "), table.Null(), s("123"), s("11.222.333/0001-44"), s("rocha ltda"), table.Null()},
			{table.Null(), table.Null(), table.Null(), table.Null(), table.Null(), table.Null()},
		})
}

func generateXlsx() error {
	return xlsx.WriteFile("testdata/sample.xlsx", xlsx.Sheet{Name: "Clientes", Table: clientes()})
}

func generateCSV() error {
	return tabular.Save("testdata/clientes.csv", clientes())
}
