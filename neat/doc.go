// Package neat provides a Go implementation of the NeuroEvolution of Augmenting Topologies (NEAT) algorithm,
// tuned for evolving game controllers such as a Breakout paddle.
//
// Genomes encode weighted connections between input, bias, hidden and output nodes. Mutation adds
// connections and splits them with new hidden nodes, crossover aligns genes on innovation numbers, and
// every generation the population is re-clustered into species by genetic distance so that new
// topologies are protected while they mature.
//
// Basic usage:
//
//	// Load configuration
//	config, err := neat.LoadConfig("configs/breakout.yaml")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	// Create a new population
//	pop, err := neat.NewPopulation(config, neat.WithSeed(42))
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	// Run for 100 generations with your fitness function
//	for i := 0; i < 100; i++ {
//		winner, err := pop.RunGeneration(playGame)
//		if err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//
//		if winner != nil {
//			fmt.Println("Solution found!")
//			break
//		}
//	}
package neat
