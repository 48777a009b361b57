package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"weekly-meal-planner/internal/clipper"
	"weekly-meal-planner/internal/config"
	"weekly-meal-planner/internal/database"
	"weekly-meal-planner/internal/llm"
	"weekly-meal-planner/internal/planner"
	"weekly-meal-planner/internal/recipe"
	"weekly-meal-planner/internal/shopping"
	"weekly-meal-planner/internal/suggest"
	"weekly-meal-planner/internal/week"

	"github.com/joho/godotenv"
)

func main() {
	// Local development keeps its secrets in a .env file; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	recipeRepo := recipe.NewRepository(db.SQL)
	planRepo := planner.NewPlanRepository(db.SQL)
	itemRepo := shopping.NewRepository(db.SQL)

	planService := planner.NewService(planRepo, recipeRepo)
	shoppingService := shopping.NewService(planRepo, recipeRepo, itemRepo)

	// Groq is the default backend; Gemini takes over when its key is set.
	var textGen llm.TextGenerator
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		if closer, ok := geminiClient.(llm.Closer); ok {
			defer closer.Close()
		}
		textGen = geminiClient
	} else {
		textGen = llm.NewGroqClient(cfg)
	}

	recipeClipper := clipper.NewClipper(recipeRepo, textGen)
	suggestService := suggest.NewService(textGen)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "recipes":
		cmd := flag.NewFlagSet("recipes", flag.ExitOnError)
		user := cmd.String("user", "", "User ID (required)")
		category := cmd.String("category", "", "Filter by category: colazione, pranzo or cena")
		cmd.Parse(os.Args[2:])
		requireUser(*user)

		var recipes []recipe.Recipe
		var err error
		if *category != "" {
			recipes, err = recipeRepo.ListByUserAndCategory(ctx, *user, recipe.Category(*category))
		} else {
			recipes, err = recipeRepo.ListByUser(ctx, *user)
		}
		if err != nil {
			log.Fatalf("Failed to list recipes: %v", err)
		}
		if len(recipes) == 0 {
			fmt.Println("No recipes yet.")
			return
		}
		for _, r := range recipes {
			fmt.Printf("%s  %-30s %-9s %d servings\n", r.ID, r.Name, r.Category, r.Servings)
		}

	case "add-recipe":
		cmd := flag.NewFlagSet("add-recipe", flag.ExitOnError)
		user := cmd.String("user", "", "User ID (required)")
		name := cmd.String("name", "", "Recipe name (required)")
		category := cmd.String("category", "pranzo", "Category: colazione, pranzo or cena")
		servings := cmd.Int("servings", 2, "Number of servings")
		ingredients := cmd.String("ingredients", "", `Ingredients as "name,quantity,unit" triples separated by ";"`)
		cmd.Parse(os.Args[2:])
		requireUser(*user)

		parsed, err := parseIngredientsFlag(*ingredients)
		if err != nil {
			log.Fatalf("Invalid -ingredients: %v", err)
		}

		id, err := recipeRepo.Create(ctx, recipe.Recipe{
			UserID:   *user,
			Name:     *name,
			Category: recipe.Category(*category),
			Servings: *servings,
		}, parsed)
		if err != nil {
			log.Fatalf("Failed to create recipe: %v", err)
		}
		fmt.Printf("Recipe created: %s\n", id)

	case "clip":
		cmd := flag.NewFlagSet("clip", flag.ExitOnError)
		user := cmd.String("user", "", "User ID (required)")
		url := cmd.String("url", "", "Recipe page URL (required)")
		cmd.Parse(os.Args[2:])
		requireUser(*user)
		if *url == "" {
			log.Fatal("-url is required")
		}

		id, err := recipeClipper.ClipURL(ctx, *user, *url)
		if err != nil {
			log.Fatalf("Failed to clip recipe: %v", err)
		}
		fmt.Printf("Recipe clipped and saved: %s\n", id)

	case "plan":
		cmd := flag.NewFlagSet("plan", flag.ExitOnError)
		user := cmd.String("user", "", "User ID (required)")
		shift := cmd.Int("week", 0, "Week offset from the current week")
		cmd.Parse(os.Args[2:])
		requireUser(*user)

		weekStart := week.ShiftWeek(week.CurrentWeekStart(time.Now()), *shift)
		plan, err := planService.Get(ctx, *user, weekStart)
		if err != nil {
			log.Fatalf("Failed to load plan: %v", err)
		}

		fmt.Printf("Week of %s\n\n", week.Key(weekStart))
		if plan == nil || plan.Grid.AssignedCount() == 0 {
			fmt.Println("No meals planned.")
			return
		}
		printGrid(ctx, recipeRepo, *user, &plan.Grid)

	case "assign":
		cmd := flag.NewFlagSet("assign", flag.ExitOnError)
		user := cmd.String("user", "", "User ID (required)")
		shift := cmd.Int("week", 0, "Week offset from the current week")
		dayFlag := cmd.String("day", "", "Day name, e.g. monday (required)")
		mealFlag := cmd.String("meal", "", "Meal: breakfast, lunch or dinner (required)")
		recipeID := cmd.String("recipe", "", "Recipe ID (required)")
		cmd.Parse(os.Args[2:])
		requireUser(*user)

		day, meal := parseSlot(*dayFlag, *mealFlag)
		weekStart := week.ShiftWeek(week.CurrentWeekStart(time.Now()), *shift)
		if err := planService.Assign(ctx, *user, weekStart, day, meal, *recipeID); err != nil {
			log.Fatalf("Failed to assign recipe: %v", err)
		}
		fmt.Printf("Assigned %s to %s %s, week of %s\n", *recipeID, day, meal, week.Key(weekStart))

	case "unassign":
		cmd := flag.NewFlagSet("unassign", flag.ExitOnError)
		user := cmd.String("user", "", "User ID (required)")
		shift := cmd.Int("week", 0, "Week offset from the current week")
		dayFlag := cmd.String("day", "", "Day name, e.g. monday (required)")
		mealFlag := cmd.String("meal", "", "Meal: breakfast, lunch or dinner (required)")
		cmd.Parse(os.Args[2:])
		requireUser(*user)

		day, meal := parseSlot(*dayFlag, *mealFlag)
		weekStart := week.ShiftWeek(week.CurrentWeekStart(time.Now()), *shift)
		if err := planService.Unassign(ctx, *user, weekStart, day, meal); err != nil {
			log.Fatalf("Failed to clear slot: %v", err)
		}
		fmt.Printf("Cleared %s %s, week of %s\n", day, meal, week.Key(weekStart))

	case "generate":
		cmd := flag.NewFlagSet("generate", flag.ExitOnError)
		user := cmd.String("user", "", "User ID (required)")
		shift := cmd.Int("week", 0, "Week offset from the current week")
		cmd.Parse(os.Args[2:])
		requireUser(*user)

		weekStart := week.ShiftWeek(week.CurrentWeekStart(time.Now()), *shift)
		items, err := shoppingService.Regenerate(ctx, *user, weekStart)
		switch {
		case errors.Is(err, shopping.ErrNoMealPlan):
			log.Fatalf("No meal plan for the week of %s. Assign some recipes first.", week.Key(weekStart))
		case errors.Is(err, shopping.ErrEmptyPlan):
			log.Fatalf("The plan for the week of %s has no recipes. Assign some first.", week.Key(weekStart))
		case err != nil:
			log.Fatalf("Failed to generate shopping list: %v", err)
		}
		fmt.Printf("Shopping list generated: %d items.\n", len(items))

	case "list":
		cmd := flag.NewFlagSet("list", flag.ExitOnError)
		user := cmd.String("user", "", "User ID (required)")
		shift := cmd.Int("week", 0, "Week offset from the current week")
		cmd.Parse(os.Args[2:])
		requireUser(*user)

		weekStart := week.ShiftWeek(week.CurrentWeekStart(time.Now()), *shift)
		list, err := itemRepo.ListWeek(ctx, *user, weekStart)
		if err != nil {
			log.Fatalf("Failed to load shopping list: %v", err)
		}
		if len(list.NotPurchased)+len(list.Purchased) == 0 {
			fmt.Println("The shopping list is empty. Run 'generate' first.")
			return
		}

		fmt.Printf("Shopping list, week of %s\n\n", week.Key(weekStart))
		for _, item := range list.NotPurchased {
			printItem("[ ]", item)
		}
		for _, item := range list.Purchased {
			printItem("[x]", item)
		}

	case "toggle":
		itemID, user := itemCommand("toggle")
		if err := itemRepo.TogglePurchased(ctx, user, itemID); err != nil {
			log.Fatalf("Failed to toggle item: %v", err)
		}
		fmt.Println("Item toggled.")

	case "remove-item":
		itemID, user := itemCommand("remove-item")
		if err := itemRepo.SoftDelete(ctx, user, itemID); err != nil {
			log.Fatalf("Failed to remove item: %v", err)
		}
		fmt.Println("Item removed from the list.")

	case "set-quantity":
		cmd := flag.NewFlagSet("set-quantity", flag.ExitOnError)
		user := cmd.String("user", "", "User ID (required)")
		itemID := cmd.String("item", "", "Shopping item ID (required)")
		quantity := cmd.String("quantity", "", "New quantity text")
		cmd.Parse(os.Args[2:])
		requireUser(*user)
		if *itemID == "" {
			log.Fatal("-item is required")
		}

		if err := itemRepo.EditQuantity(ctx, *user, *itemID, *quantity); err != nil {
			log.Fatalf("Failed to update quantity: %v", err)
		}
		fmt.Println("Quantity updated.")

	case "suggest":
		cmd := flag.NewFlagSet("suggest", flag.ExitOnError)
		name := cmd.String("name", "", "Recipe name (required)")
		category := cmd.String("category", "", "Category hint: colazione, pranzo or cena")
		cmd.Parse(os.Args[2:])

		candidates, err := suggestService.Suggest(ctx, *name, recipe.Category(*category))
		if err != nil {
			log.Fatalf("Failed to suggest ingredients: %v", err)
		}
		for _, c := range candidates {
			fmt.Printf("- %s", c.Name)
			if c.Quantity != "" {
				fmt.Printf(": %s %s", c.Quantity, c.Unit)
			} else if c.Unit != "" {
				fmt.Printf(" (%s)", c.Unit)
			}
			fmt.Println()
		}

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func requireUser(user string) {
	if user == "" {
		log.Fatal("-user is required")
	}
}

func parseSlot(dayFlag, mealFlag string) (planner.Day, planner.Meal) {
	day, err := planner.ParseDay(dayFlag)
	if err != nil {
		log.Fatalf("Invalid -day: %v", err)
	}
	meal, err := planner.ParseMeal(mealFlag)
	if err != nil {
		log.Fatalf("Invalid -meal: %v", err)
	}
	return day, meal
}

// itemCommand parses the shared flags of the single-item subcommands.
func itemCommand(name string) (itemID, user string) {
	cmd := flag.NewFlagSet(name, flag.ExitOnError)
	userFlag := cmd.String("user", "", "User ID (required)")
	itemFlag := cmd.String("item", "", "Shopping item ID (required)")
	cmd.Parse(os.Args[2:])
	requireUser(*userFlag)
	if *itemFlag == "" {
		log.Fatal("-item is required")
	}
	return *itemFlag, *userFlag
}

// parseIngredientsFlag parses "name,quantity,unit;name,quantity,unit" into
// ingredients. Quantity and unit may be omitted.
func parseIngredientsFlag(raw string) ([]recipe.Ingredient, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var ingredients []recipe.Ingredient
	for _, triple := range strings.Split(raw, ";") {
		parts := strings.Split(triple, ",")
		ing := recipe.Ingredient{Name: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			ing.Quantity = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			ing.Unit = strings.TrimSpace(parts[2])
		}
		if len(parts) > 3 {
			return nil, fmt.Errorf("too many fields in %q", triple)
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, nil
}

func printGrid(ctx context.Context, recipes *recipe.Repository, userID string, grid *planner.Grid) {
	names := make(map[string]string)
	for _, id := range grid.RecipeIDsInUse() {
		rec, err := recipes.Get(ctx, userID, id)
		if err != nil {
			log.Fatalf("Failed to load recipe %s: %v", id, err)
		}
		if rec != nil {
			names[id] = rec.Name
		}
	}

	for day := planner.Monday; day < planner.DayCount; day++ {
		fmt.Printf("%s\n", day)
		for meal := planner.Breakfast; meal < planner.MealCount; meal++ {
			id := grid.RecipeID(day, meal)
			if id == "" {
				fmt.Printf("  %-10s -\n", meal)
				continue
			}
			name := names[id]
			if name == "" {
				name = id
			}
			fmt.Printf("  %-10s %s\n", meal, name)
		}
	}
}

func printItem(mark string, item shopping.Item) {
	line := fmt.Sprintf("%s %s", mark, item.IngredientName)
	if item.Quantity != "" {
		line += " " + item.Quantity
		if item.Unit != "" {
			line += " " + item.Unit
		}
	}
	if len(item.RecipeNames) > 0 {
		line += fmt.Sprintf("  (%s)", strings.Join(item.RecipeNames, ", "))
	}
	fmt.Printf("%s  [%s]\n", line, item.ID)
}

func printUsage() {
	fmt.Println("Usage: meal-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  recipes        List your recipes")
	fmt.Println("  add-recipe     Add a recipe with its ingredients")
	fmt.Println("  clip           Import a recipe from a URL")
	fmt.Println("  plan           Show a week's meal plan")
	fmt.Println("  assign         Assign a recipe to a (day, meal) slot")
	fmt.Println("  unassign       Clear a (day, meal) slot")
	fmt.Println("  generate       Rebuild a week's shopping list from its plan")
	fmt.Println("  list           Show a week's shopping list")
	fmt.Println("  toggle         Toggle an item's purchased flag")
	fmt.Println("  remove-item    Remove an item from the list")
	fmt.Println("  set-quantity   Edit an item's quantity")
	fmt.Println("  suggest        AI ingredient suggestions for a recipe name")
	fmt.Println("\nAll data commands take -user; week commands take -week to shift from the current week.")
}
